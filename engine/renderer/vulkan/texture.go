package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// TextureCreate uploads pixel data for a new 2D texture via a staging buffer,
// leaving the result in shader-read-only-optimal layout.
func (vr *VulkanRenderer) TextureCreate(pixels []uint8, texture *metadata.Texture) {
	context := vr.context
	size := vk.DeviceSize(texture.Width) * vk.DeviceSize(texture.Height) * vk.DeviceSize(texture.ChannelCount)

	imageFormat := vk.FormatR8g8b8a8Unorm

	staging, err := vulkanBufferCreate(context, uint64(size),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		uint32(vk.MemoryPropertyHostVisibleBit)|uint32(vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		core.LogError("failed to create staging buffer for texture %s: %s", texture.Name, err.Error())
		return
	}
	defer staging.destroy(context)

	data, err := staging.lockMemory(context, 0, uint64(size), 0)
	if err != nil {
		core.LogError("failed to map staging buffer for texture %s: %s", texture.Name, err.Error())
		return
	}
	CopyPixelsToMappedMemory(data, pixels)
	staging.unlockMemory(context)

	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		texture.Width,
		texture.Height,
		imageFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)|vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		core.LogError("failed to create image for texture %s: %s", texture.Name, err.Error())
		return
	}

	commandBuffer, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		core.LogError("failed to begin single-use command buffer for texture %s: %s", texture.Name, err.Error())
		return
	}

	image.TransitionLayout(context, commandBuffer, imageFormat, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	image.CopyFromBuffer(context, staging.Handle, commandBuffer)
	image.TransitionLayout(context, commandBuffer, imageFormat, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)

	if err := commandBuffer.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		core.LogError("failed to submit texture upload for %s: %s", texture.Name, err.Error())
		return
	}

	texture.InternalData = image
	texture.Generation++
}

func (vr *VulkanRenderer) TextureDestroy(texture *metadata.Texture) error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	image, ok := texture.InternalData.(*VulkanImage)
	if ok && image != nil {
		image.ImageDestroy(vr.context)
	}
	texture.InternalData = nil
	return nil
}

// TextureCreateWriteable sets up an empty, device-local image intended to be
// rendered into (e.g. as a render target colour attachment).
func (vr *VulkanRenderer) TextureCreateWriteable(texture *metadata.Texture) error {
	context := vr.context

	usage := vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) |
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
		vk.ImageUsageFlags(vk.ImageUsageSampledBit) |
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	imageFormat := vk.FormatR8g8b8a8Unorm

	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		texture.Width,
		texture.Height,
		imageFormat,
		vk.ImageTilingOptimal,
		usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		aspect)
	if err != nil {
		return err
	}

	texture.InternalData = image
	texture.Generation++
	return nil
}

// TextureResize destroys the current backing image and reallocates one at
// the new dimensions; the caller is responsible for re-uploading pixel data.
func (vr *VulkanRenderer) TextureResize(texture *metadata.Texture, newWidth, newHeight uint32) {
	if texture.InternalData == nil {
		return
	}
	image, ok := texture.InternalData.(*VulkanImage)
	if !ok {
		return
	}
	image.ImageDestroy(vr.context)

	texture.Width = newWidth
	texture.Height = newHeight

	if err := vr.TextureCreateWriteable(texture); err != nil {
		core.LogError("failed to resize texture %s: %s", texture.Name, err.Error())
	}
}

// TextureWriteData uploads a sub-range of pixel data into an existing
// texture via a fresh staging buffer.
func (vr *VulkanRenderer) TextureWriteData(texture *metadata.Texture, offset, size uint32, pixels []uint8) {
	context := vr.context

	image, ok := texture.InternalData.(*VulkanImage)
	if !ok || image == nil {
		core.LogError("texture %s has no internal image to write to", texture.Name)
		return
	}

	staging, err := vulkanBufferCreate(context, uint64(size),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		uint32(vk.MemoryPropertyHostVisibleBit)|uint32(vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		core.LogError("failed to create staging buffer for texture write %s: %s", texture.Name, err.Error())
		return
	}
	defer staging.destroy(context)

	data, err := staging.lockMemory(context, 0, uint64(size), 0)
	if err != nil {
		core.LogError("failed to map staging buffer for texture write %s: %s", texture.Name, err.Error())
		return
	}
	CopyPixelsToMappedMemory(data, pixels)
	staging.unlockMemory(context)

	commandBuffer, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		core.LogError("failed to begin single-use command buffer for texture write %s: %s", texture.Name, err.Error())
		return
	}

	imageFormat := vk.FormatR8g8b8a8Unorm
	image.TransitionLayout(context, commandBuffer, imageFormat, vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
	image.CopyFromBuffer(context, staging.Handle, commandBuffer)
	image.TransitionLayout(context, commandBuffer, imageFormat, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)

	if err := commandBuffer.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		core.LogError("failed to submit texture write for %s: %s", texture.Name, err.Error())
		return
	}

	texture.Generation++
}

// TextureMapAcquireResources creates the Vulkan sampler backing a texture
// map's filtering/repeat configuration.
func (vr *VulkanRenderer) TextureMapAcquireResources(textureMap *metadata.TextureMap) error {
	context := vr.context

	samplerInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        textureFilterToVK(textureMap.FilterMagnify),
		MinFilter:        textureFilterToVK(textureMap.FilterMinify),
		AddressModeU:     textureRepeatToVK(textureMap.RepeatU),
		AddressModeV:     textureRepeatToVK(textureMap.RepeatV),
		AddressModeW:     textureRepeatToVK(textureMap.RepeatW),
		AnisotropyEnable: vk.True,
		MaxAnisotropy:    16,
		BorderColor:      vk.BorderColorIntOpaqueBlack,
		CompareOp:        vk.CompareOpAlways,
		MipmapMode:       vk.SamplerMipmapModeLinear,
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("failed to create sampler for texture map")
		core.LogError(err.Error())
		return err
	}

	textureMap.InternalData = sampler
	return nil
}

func (vr *VulkanRenderer) TextureMapReleaseResources(textureMap *metadata.TextureMap) {
	if textureMap == nil {
		return
	}
	if sampler, ok := textureMap.InternalData.(vk.Sampler); ok && sampler != nil {
		vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
		vk.DestroySampler(vr.context.Device.LogicalDevice, sampler, vr.context.Allocator)
	}
	textureMap.InternalData = nil
}

func textureFilterToVK(filter metadata.TextureFilter) vk.Filter {
	if filter == metadata.TextureFilterModeNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func textureRepeatToVK(repeat metadata.TextureRepeat) vk.SamplerAddressMode {
	switch repeat {
	case metadata.TextureRepeatRepeat:
		return vk.SamplerAddressModeRepeat
	case metadata.TextureRepeatMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case metadata.TextureRepeatClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case metadata.TextureRepeatClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	}
	return vk.SamplerAddressModeRepeat
}
