package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

// VulkanBuffer pairs a buffer with its backing memory. Host-visible buffers
// stay persistently mapped for their whole lifetime; Mapped is nil for
// device-local buffers.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Mapped []byte
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags, mapped bool) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size: size,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	// Staged resources are written on the transfer family and read on the
	// graphics family; concurrent sharing spares explicit ownership
	// transfers between the two.
	if families := context.sharedQueueFamilies(); len(families) > 1 {
		bufferInfo.SharingMode = vk.SharingModeConcurrent
		bufferInfo.QueueFamilyIndexCount = uint32(len(families))
		bufferInfo.PQueueFamilyIndices = families
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer of %d bytes with %s", size, VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		err := fmt.Errorf("no suitable memory type for buffer of %d bytes", size)
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		err := fmt.Errorf("failed to allocate %d bytes of buffer memory with %s", size, VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	if mapped {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, vk.DeviceSize(size), 0, &data); res != vk.Success {
			err := fmt.Errorf("failed to map buffer memory with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
		// The region stays mapped until Destroy; host-coherent memory keeps
		// writes visible without explicit flushes.
		buffer.Mapped = unsafe.Slice((*byte)(data), size)
	}

	return buffer, nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b == nil || b.Handle == vk.NullBuffer {
		return
	}
	if b.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
		b.Mapped = nil
	}
	vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
	vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
	b.Handle = vk.NullBuffer
	b.Memory = vk.NullDeviceMemory
}
