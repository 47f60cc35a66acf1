package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

func renderBufferUsage(bufferType metadata.RenderBufferType) vk.BufferUsageFlags {
	switch bufferType {
	case metadata.RENDERBUFFER_TYPE_VERTEX:
		return vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) | vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	case metadata.RENDERBUFFER_TYPE_INDEX:
		return vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) | vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	case metadata.RENDERBUFFER_TYPE_UNIFORM:
		return vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	case metadata.RENDERBUFFER_TYPE_STAGING:
		return vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	case metadata.RENDERBUFFER_TYPE_READ:
		return vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	case metadata.RENDERBUFFER_TYPE_STORAGE:
		return vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	return vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) | vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
}

func renderBufferMemoryFlags(bufferType metadata.RenderBufferType) uint32 {
	if bufferType == metadata.RENDERBUFFER_TYPE_STAGING || bufferType == metadata.RENDERBUFFER_TYPE_READ || bufferType == metadata.RENDERBUFFER_TYPE_UNIFORM {
		return uint32(vk.MemoryPropertyHostVisibleBit) | uint32(vk.MemoryPropertyHostCoherentBit)
	}
	return uint32(vk.MemoryPropertyDeviceLocalBit)
}

func (vr *VulkanRenderer) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	internal, err := vulkanBufferCreate(vr.context, totalSize, renderBufferUsage(renderbufferType), renderBufferMemoryFlags(renderbufferType), true)
	if err != nil {
		return nil, err
	}

	return &metadata.RenderBuffer{
		RenderBufferType: renderbufferType,
		TotalSize:        totalSize,
		InternalData:     internal,
	}, nil
}

func (vr *VulkanRenderer) RenderBufferDestroy(buffer *metadata.RenderBuffer) {
	if internal, ok := buffer.InternalData.(*VulkanBuffer); ok && internal != nil {
		internal.destroy(vr.context)
	}
	buffer.InternalData = nil
}

func (vr *VulkanRenderer) RenderBufferBind(buffer *metadata.RenderBuffer, offset uint64) error {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return fmt.Errorf("render buffer has no internal backing buffer")
	}
	return internal.bind(vr.context, offset)
}

func (vr *VulkanRenderer) RenderBufferUnbind(buffer *metadata.RenderBuffer) bool {
	// Vulkan buffers remain bound for their lifetime; nothing to unbind.
	return true
}

func (vr *VulkanRenderer) RenderBufferMapMemory(buffer *metadata.RenderBuffer, offset, size uint64) (interface{}, error) {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return nil, fmt.Errorf("render buffer has no internal backing buffer")
	}
	return internal.lockMemory(vr.context, offset, size, 0)
}

func (vr *VulkanRenderer) RenderBufferUnmapMemory(buffer *metadata.RenderBuffer, offset, size uint64) {
	if internal, ok := buffer.InternalData.(*VulkanBuffer); ok && internal != nil {
		internal.unlockMemory(vr.context)
	}
}

// Vulkan memory backed by host-coherent flags does not require an explicit
// flush; this is a no-op kept for backend-API symmetry.
func (vr *VulkanRenderer) RenderBufferFlush(buffer *metadata.RenderBuffer, offset, size uint64) error {
	return nil
}

func (vr *VulkanRenderer) RenderBufferRead(buffer *metadata.RenderBuffer, offset, size uint64) (interface{}, error) {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return nil, fmt.Errorf("render buffer has no internal backing buffer")
	}
	data, err := internal.lockMemory(vr.context, offset, size, 0)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(data), size))
	internal.unlockMemory(vr.context)
	return out, nil
}

func (vr *VulkanRenderer) RenderBufferResize(buffer *metadata.RenderBuffer, newTotalSize uint64) error {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return fmt.Errorf("render buffer has no internal backing buffer")
	}

	newBuffer, err := vulkanBufferCreate(vr.context, newTotalSize, internal.Usage, internal.MemoryPropertyFlags, false)
	if err != nil {
		return err
	}

	if err := vulkanBufferCopyTo(vr.context, vr.context.Device.GraphicsCommandPool, vk.NullFence, vr.context.Device.GraphicsQueue,
		internal.Handle, 0, newBuffer.Handle, 0, buffer.TotalSize); err != nil {
		return err
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	if err := newBuffer.bind(vr.context, 0); err != nil {
		return err
	}

	internal.destroy(vr.context)
	buffer.InternalData = newBuffer
	buffer.TotalSize = newTotalSize
	return nil
}

func (vr *VulkanRenderer) RenderBufferLoadRange(buffer *metadata.RenderBuffer, offset, size uint64, data interface{}) error {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return fmt.Errorf("render buffer has no internal backing buffer")
	}

	pixels, ok := data.([]uint8)
	if !ok {
		err := fmt.Errorf("RenderBufferLoadRange only supports []uint8 payloads")
		core.LogError(err.Error())
		return err
	}

	dst, err := internal.lockMemory(vr.context, offset, size, 0)
	if err != nil {
		return err
	}
	CopyPixelsToMappedMemory(dst, pixels)
	internal.unlockMemory(vr.context)
	return nil
}

func (vr *VulkanRenderer) RenderBufferCopyRange(source *metadata.RenderBuffer, sourceOffset uint64, dest *metadata.RenderBuffer, destOffset uint64, size uint64) error {
	sourceInternal, ok := source.InternalData.(*VulkanBuffer)
	if !ok || sourceInternal == nil {
		return fmt.Errorf("source render buffer has no internal backing buffer")
	}
	destInternal, ok := dest.InternalData.(*VulkanBuffer)
	if !ok || destInternal == nil {
		return fmt.Errorf("dest render buffer has no internal backing buffer")
	}

	return vulkanBufferCopyTo(vr.context, vr.context.Device.GraphicsCommandPool, vk.NullFence, vr.context.Device.GraphicsQueue,
		sourceInternal.Handle, sourceOffset, destInternal.Handle, destOffset, size)
}

func (vr *VulkanRenderer) RenderBufferDraw(buffer *metadata.RenderBuffer, offset uint64, elementCount uint32, bindOnly bool) error {
	internal, ok := buffer.InternalData.(*VulkanBuffer)
	if !ok || internal == nil {
		return fmt.Errorf("render buffer has no internal backing buffer")
	}

	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]

	switch buffer.RenderBufferType {
	case metadata.RENDERBUFFER_TYPE_VERTEX:
		offsets := []vk.DeviceSize{vk.DeviceSize(offset)}
		vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{internal.Handle}, offsets)
		if !bindOnly {
			vk.CmdDraw(commandBuffer.Handle, elementCount, 1, 0, 0)
		}
	case metadata.RENDERBUFFER_TYPE_INDEX:
		vk.CmdBindIndexBuffer(commandBuffer.Handle, internal.Handle, vk.DeviceSize(offset), vk.IndexTypeUint32)
		if !bindOnly {
			vk.CmdDrawIndexed(commandBuffer.Handle, elementCount, 1, 0, 0, 0)
		}
	default:
		return fmt.Errorf("render buffer type %d does not support drawing", buffer.RenderBufferType)
	}

	return nil
}

func (vr *VulkanRenderer) IsMultithreaded() bool {
	return vr.context.MultithreadingEnabled
}
