package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	GraphicsQueueIndex uint32
	TransferQueueIndex uint32

	SwapchainSupport *VulkanSwapchainSupportInfo
	DepthFormat      vk.Format
}

func DeviceCreate(context *VulkanContext) error {
	if err := selectPhysicalDevice(context); err != nil {
		return err
	}

	device := context.Device

	// One priority covers both families; the renderer never contends queues.
	priorities := []float32{1.0}

	queueInfos := []vk.DeviceQueueCreateInfo{
		{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: device.GraphicsQueueIndex,
			QueueCount:       1,
			PQueuePriorities: priorities,
		},
	}
	if device.TransferQueueIndex != device.GraphicsQueueIndex {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: device.TransferQueueIndex,
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}

	extensions := []string{
		vk.KhrSwapchainExtensionName,
		vk.ExtDescriptorIndexingExtensionName,
		vk.KhrDrawIndirectCountExtensionName,
	}

	// The bindless table needs runtime-sized, partially-bound descriptor
	// arrays updated after bind.
	indexingFeatures := vk.PhysicalDeviceDescriptorIndexingFeatures{
		SType: vk.StructureTypePhysicalDeviceDescriptorIndexingFeatures,
		ShaderSampledImageArrayNonUniformIndexing:     vk.True,
		ShaderStorageBufferArrayNonUniformIndexing:    vk.True,
		ShaderUniformBufferArrayNonUniformIndexing:    vk.True,
		DescriptorBindingPartiallyBound:               vk.True,
		DescriptorBindingSampledImageUpdateAfterBind:  vk.True,
		DescriptorBindingStorageBufferUpdateAfterBind: vk.True,
		DescriptorBindingUniformBufferUpdateAfterBind: vk.True,
		RuntimeDescriptorArray:                        vk.True,
	}

	features := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy:                       vk.False,
		DrawIndirectFirstInstance:               vk.True,
		VertexPipelineStoresAndAtomics:          vk.True,
		FragmentStoresAndAtomics:                vk.True,
		ShaderStorageBufferArrayDynamicIndexing: vk.True,
	}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   vkStructPtr(&indexingFeatures),
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	var logical vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceInfo, context.Allocator, &logical); res != vk.Success {
		err := fmt.Errorf("vkCreateDevice failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	device.LogicalDevice = logical

	core.LogInfo("Vulkan device created (graphics family %d, transfer family %d).",
		device.GraphicsQueueIndex, device.TransferQueueIndex)
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}
}

func selectPhysicalDevice(context *VulkanContext) error {
	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, nil); res != vk.Success || deviceCount == 0 {
		err := fmt.Errorf("no Vulkan-capable adapters found")
		core.LogError(err.Error())
		return core.ErrDeviceInitFailed
	}

	physicalDevices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, physicalDevices); res != vk.Success {
		core.LogError("failed to enumerate physical devices: %s", VulkanResultString(res))
		return core.ErrDeviceInitFailed
	}

	for _, physical := range physicalDevices {
		device := &VulkanDevice{
			PhysicalDevice:   physical,
			SwapchainSupport: &VulkanSwapchainSupportInfo{},
		}
		if !deviceMeetsRequirements(context, device) {
			continue
		}
		if !DeviceDetectDepthFormat(device) {
			continue
		}
		context.Device = device
		return nil
	}

	core.LogError("no adapter satisfies the renderer's queue and surface requirements")
	return core.ErrDeviceInitFailed
}

func deviceMeetsRequirements(context *VulkanContext, device *VulkanDevice) bool {
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device.PhysicalDevice, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device.PhysicalDevice, &familyCount, families)

	graphicsIndex := int32(-1)
	transferIndex := int32(-1)

	for i := uint32(0); i < familyCount; i++ {
		families[i].Deref()
		flags := families[i].QueueFlags

		if graphicsIndex < 0 && flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			var presentSupport vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(device.PhysicalDevice, i, context.Surface, &presentSupport)
			if presentSupport == vk.True {
				graphicsIndex = int32(i)
			}
		}

		// Prefer a dedicated transfer family for the copy queue.
		if flags&vk.QueueFlags(vk.QueueTransferBit) != 0 && flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			transferIndex = int32(i)
		}
	}

	if graphicsIndex < 0 {
		return false
	}
	if transferIndex < 0 {
		transferIndex = graphicsIndex
	}

	device.GraphicsQueueIndex = uint32(graphicsIndex)
	device.TransferQueueIndex = uint32(transferIndex)

	DeviceQuerySwapchainSupport(device.PhysicalDevice, context.Surface, device.SwapchainSupport)
	return device.SwapchainSupport.FormatCount > 0 && device.SwapchainSupport.PresentModeCount > 0
}

func DeviceQuerySwapchainSupport(physical vk.PhysicalDevice, surface vk.Surface, support *VulkanSwapchainSupportInfo) {
	vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &support.Capabilities)
	support.Capabilities.Deref()

	vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &support.FormatCount, nil)
	if support.FormatCount > 0 {
		support.Formats = make([]vk.SurfaceFormat, support.FormatCount)
		vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &support.FormatCount, support.Formats)
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &support.PresentModeCount, nil)
	if support.PresentModeCount > 0 {
		support.PresentModes = make([]vk.PresentMode, support.PresentModeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &support.PresentModeCount, support.PresentModes)
	}
}

// DeviceDetectDepthFormat picks the depth format: a 32-bit float depth
// attachment, the reverse-Z convention's natural companion, when the device
// supports one; otherwise D32S8 float, then D24S8 unorm.
func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}

	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, format, &props)
		props.Deref()

		if vk.FormatFeatureFlags(props.OptimalTilingFeatures)&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			device.DepthFormat = format
			return true
		}
	}
	return false
}
