package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	vmath "github.com/spaghettifunk/vetro/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering, one per swapchain image.
	Framebuffers []vk.Framebuffer
}

func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	vs.destroySwapchain(context)
	return createSwapchain(context, width, height)
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex resolves the back-buffer index the next
// frame targets. The semaphore signals once the image is actually free on
// the GPU side.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, imageAvailableSemaphore vk.Semaphore) (uint32, bool) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, math.MaxUint64, imageAvailableSemaphore, vk.NullFence, &imageIndex)

	if result == vk.ErrorOutOfDate {
		return 0, false
	} else if result != vk.Success && result != vk.Suboptimal {
		core.LogFatal("Failed to acquire swapchain image with %s", VulkanResultString(result))
		return 0, false
	}
	return imageIndex, true
}

// SwapchainPresent gives the image back to the swapchain with vsync.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) bool {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)
	if result == vk.ErrorOutOfDate || result == vk.Suboptimal {
		return false
	} else if result != vk.Success {
		core.LogFatal("Failed to present swapchain image with %s", VulkanResultString(result))
	}
	return true
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{}

	support := context.Device.SwapchainSupport

	// Preferred format: 8-bit BGRA, non-linear sRGB color space.
	found := false
	for i := 0; i < int(support.FormatCount); i++ {
		format := support.Formats[i]
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			found = true
		}
	}
	if !found {
		swapchain.ImageFormat = support.Formats[0]
	}

	// FIFO is the vsync present interval 1 the frame pipeline requests.
	presentMode := vk.PresentModeFifo

	extent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = support.Capabilities.CurrentExtent
	}
	min := support.Capabilities.MinImageExtent
	max := support.Capabilities.MaxImageExtent
	extent.Width = vmath.Clamp(extent.Width, min.Width, max.Width)
	extent.Height = vmath.Clamp(extent.Height, min.Height, max.Height)

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}
	if imageCount > maxSwapchainImages {
		imageCount = maxSwapchainImages
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		core.LogError("failed to create swapchain with %s", VulkanResultString(res))
		return nil, core.ErrSwapchainCreationFailed
	}
	swapchain.Handle = handle

	context.FramebufferWidth = extent.Width
	context.FramebufferHeight = extent.Height

	// Images
	swapchain.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to count swapchain images with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			err := fmt.Errorf("failed to create swapchain image view with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
	}

	// Depth resources at the swapchain's dimensions. Recreated wholesale on
	// resize along with the rest of the swapchain.
	depthAttachment, err := ImageCreate(
		context,
		extent.Width,
		extent.Height,
		context.Device.DepthFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}
	swapchain.DepthAttachment = depthAttachment

	core.LogInfo("Swapchain created (%dx%d, %d images).", extent.Width, extent.Height, swapchain.ImageCount)
	return swapchain, nil
}

// RegenerateFramebuffers rebuilds the per-image framebuffers against the
// given render pass; called at init and after every resize.
func (vs *VulkanSwapchain) RegenerateFramebuffers(context *VulkanContext, renderPass vk.RenderPass) error {
	vs.Framebuffers = make([]vk.Framebuffer, vs.ImageCount)
	for i := 0; i < int(vs.ImageCount); i++ {
		attachments := []vk.ImageView{
			vs.Views[i],
			vs.DepthAttachment.View,
		}

		framebufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           context.FramebufferWidth,
			Height:          context.FramebufferHeight,
			Layers:          1,
		}

		if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferInfo, context.Allocator, &vs.Framebuffers[i]); res != vk.Success {
			err := fmt.Errorf("failed to create framebuffer with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
	}
	return nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	for _, framebuffer := range vs.Framebuffers {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, framebuffer, context.Allocator)
	}
	vs.Framebuffers = nil

	vs.DepthAttachment.Destroy(context)

	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are thus destroyed when it is.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}

	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
}
