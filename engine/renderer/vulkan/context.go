package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	// TODO: only in DEBUG mode
	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice
}

// sharedQueueFamilies lists the families that touch staged resources; a
// single-element result means exclusive sharing is fine.
func (vc *VulkanContext) sharedQueueFamilies() []uint32 {
	if vc.Device.GraphicsQueueIndex == vc.Device.TransferQueueIndex {
		return []uint32{vc.Device.GraphicsQueueIndex}
	}
	return []uint32{vc.Device.GraphicsQueueIndex, vc.Device.TransferQueueIndex}
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
