package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
)

// vulkanBufferCreate allocates a device buffer and backing memory for it. The
// memory property flags determine whether the result is host-visible
// (uniform/staging buffers) or device-local (vertex/index buffers).
func vulkanBufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryPropertyFlags uint32, bindOnCreate bool) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Usage:               usage,
		MemoryPropertyFlags: memoryPropertyFlags,
	}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	if res := vk.CreateBuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		err := fmt.Errorf("failed to create vulkan buffer with size %d", size)
		core.LogError(err.Error())
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()
	buffer.MemoryRequirements = requirements

	buffer.MemoryIndex = context.FindMemoryIndex(requirements.MemoryTypeBits, memoryPropertyFlags)
	if buffer.MemoryIndex == -1 {
		err := fmt.Errorf("unable to find suitable memory type for buffer of size %d", size)
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(buffer.MemoryIndex),
	}

	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buffer.Memory); res != vk.Success {
		err := fmt.Errorf("failed to allocate memory for buffer of size %d", size)
		core.LogError(err.Error())
		return nil, err
	}

	if bindOnCreate {
		if err := buffer.bind(context, 0); err != nil {
			return nil, err
		}
	}

	return buffer, nil
}

func (b *VulkanBuffer) bind(context *VulkanContext, offset uint64) error {
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, b.Handle, b.Memory, vk.DeviceSize(offset)); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory")
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (b *VulkanBuffer) destroy(context *VulkanContext) {
	if b.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = nil
	}
}

func (b *VulkanBuffer) lockMemory(context *VulkanContext, offset, size uint64, flags vk.MemoryMapFlags) (unsafe.Pointer, error) {
	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(size), flags, &data); res != vk.Success {
		err := fmt.Errorf("failed to map buffer memory")
		core.LogError(err.Error())
		return nil, err
	}
	b.IsLocked = true
	return data, nil
}

func (b *VulkanBuffer) unlockMemory(context *VulkanContext) {
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	b.IsLocked = false
}

// vulkanBufferCopyTo copies size bytes from source into dest using a one-time-use
// command buffer, as used to move staging buffers into device-local memory.
func vulkanBufferCopyTo(context *VulkanContext, pool vk.CommandPool, fence vk.Fence, queue vk.Queue, source vk.Buffer, sourceOffset uint64, dest vk.Buffer, destOffset uint64, size uint64) error {
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		err := fmt.Errorf("failed waiting for queue to be idle before buffer copy")
		core.LogError(err.Error())
		return err
	}

	commandBuffer, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(sourceOffset),
		DstOffset: vk.DeviceSize(destOffset),
		Size:      vk.DeviceSize(size),
	}

	vk.CmdCopyBuffer(commandBuffer.Handle, source, dest, 1, []vk.BufferCopy{copyRegion})

	return commandBuffer.EndSingleUse(context, pool, queue)
}
