package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/containers"
	"github.com/spaghettifunk/vetro/engine/core"
	"github.com/spaghettifunk/vetro/engine/platform"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

const scratchArenaSize = 1 * 1024 * 1024

// VulkanRenderer owns every GPU object of the renderer core and composes
// the allocators, queues, and pipelines around the frame loop.
type VulkanRenderer struct {
	platform    *platform.Platform
	context     *VulkanContext
	FrameNumber uint64

	debug bool

	directQueue *CommandQueue
	copyQueue   *CommandQueue

	rtvHeap      *DescriptorHeap
	dsvHeap      *DescriptorHeap
	bindlessHeap *DescriptorHeap
	bindless     *BindlessTable

	pipelineLayout   vk.PipelineLayout
	lightingPipeline vk.Pipeline
	linePipeline     vk.Pipeline
	cullPipeline     vk.Pipeline

	renderPass      vk.RenderPass
	swapchain       *VulkanSwapchain
	swapchainFences [maxSwapchainImages]uint64
	swapchainRTVs   [maxSwapchainImages]Descriptor
	depthView       Descriptor

	imageAvailableSemaphores []vk.Semaphore
	queueCompleteSemaphores  []vk.Semaphore
	currentFrame             uint32

	availableCommandLists []*CommandList
	executingCommandLists []*CommandList

	freeUploadPools        []*UploadPool
	freeConstantBuffers    []*ConstantBuffer
	freeWritableMeshes     []*WritableMesh
	freeWritableArgBuffers []*WritableArgumentBuffer
	freeReleasableSlots    []*ReleasableResource
	constantBufferBlocks   int

	// Mapped blocks and similar resources that live until teardown.
	garbage []*VulkanBuffer

	meshPool        *containers.Pool[MeshData]
	materialPool    *containers.Pool[MaterialData]
	defaultMaterial metadata.Material

	// GPU-side culling output: compacted records plus the atomic counter
	// the indirect draw consumes.
	outArgsBuffer  *VulkanBuffer
	outArgsView    Descriptor
	outCountBuffer *VulkanBuffer
	outCountView   Descriptor

	scratch *containers.ScratchPool
}

func New(p *platform.Platform) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		context: &VulkanContext{
			Allocator: nil,
		},
		debug: true,
	}
}

// Initialize brings up the whole backend: instance, device, queues, heaps,
// pipelines, swapchain, and the built-in default material.
func (vr *VulkanRenderer) Initialize(appName string, blobs metadata.ShaderBlobs) error {
	procAddr := vr.platform.InstanceProcAddr()
	if procAddr == nil {
		core.LogFatal("GetInstanceProcAddress is nil")
		return core.ErrDeviceInitFailed
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogFatal("failed to initialize vk: %s", err)
		return core.ErrDeviceInitFailed
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Vetro Renderer"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}
	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	validationLayers := []string{}
	if vr.debug {
		validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}
	}
	createInfo.EnabledLayerCount = uint32(len(validationLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(validationLayers)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		core.LogError("failed to create the Vulkan instance with %s", VulkanResultString(res))
		return core.ErrDeviceInitFailed
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return core.ErrDeviceInitFailed
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return core.ErrDeviceInitFailed
		}
		vr.context.debugMessenger = dbg
	}

	surface, err := vr.platform.CreateVulkanSurface(vr.context.Instance)
	if err != nil {
		return core.ErrDeviceInitFailed
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return core.ErrDeviceInitFailed
	}

	vr.directQueue = NewCommandQueue(vr.context, vr.context.Device.GraphicsQueueIndex)
	vr.copyQueue = NewCommandQueue(vr.context, vr.context.Device.TransferQueueIndex)

	vr.rtvHeap = NewDescriptorHeap(maxRenderTargetViews, heapIDRenderTarget)
	vr.dsvHeap = NewDescriptorHeap(maxDepthStencilViews, heapIDDepthStencil)
	vr.bindlessHeap = NewDescriptorHeap(bindlessHeapCapacity, heapIDBindless)

	table, err := NewBindlessTable(vr.context)
	if err != nil {
		return err
	}
	vr.bindless = table

	if err := vr.createPipelineLayout(); err != nil {
		return err
	}

	width, height := vr.platform.FramebufferSize()
	sc, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.swapchain = sc

	rp, err := RenderpassCreate(vr.context, vr.swapchain.ImageFormat.Format)
	if err != nil {
		return err
	}
	vr.renderPass = rp

	if err := vr.swapchain.RegenerateFramebuffers(vr.context, vr.renderPass); err != nil {
		return err
	}

	// Slot bookkeeping for the render-target and depth views; the slots
	// survive resizes so the rebuilt views land in the same indices.
	for i := 0; i < maxSwapchainImages; i++ {
		vr.swapchainRTVs[i] = vr.rtvHeap.Alloc()
	}
	vr.depthView = vr.dsvHeap.Alloc()

	if err := vr.createPipelines(blobs); err != nil {
		return err
	}

	vr.imageAvailableSemaphores = make([]vk.Semaphore, framesInFlight)
	vr.queueCompleteSemaphores = make([]vk.Semaphore, framesInFlight)
	for i := 0; i < framesInFlight; i++ {
		semaphoreInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreInfo, vr.context.Allocator, &vr.imageAvailableSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on image available")
			core.LogError(err.Error())
			return err
		}
		if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreInfo, vr.context.Allocator, &vr.queueCompleteSemaphores[i]); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore on queue complete")
			core.LogError(err.Error())
			return err
		}
	}

	vr.meshPool = containers.NewPool[MeshData](maxMeshCount)
	vr.materialPool = containers.NewPool[MaterialData](maxMaterialCount)
	vr.scratch = containers.NewScratchPool(scratchArenaSize)

	if err := vr.createCullOutputBuffers(); err != nil {
		return err
	}

	if err := vr.createDefaultMaterial(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// createCullOutputBuffers allocates the device-local compacted record
// buffer and the 4-byte atomic counter the indirect draw reads.
func (vr *VulkanRenderer) createCullOutputBuffers() error {
	args, err := BufferCreate(
		vr.context,
		uint64(maxIndirectCommands)*indirectCommandStride,
		vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit|vk.BufferUsageIndirectBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		false)
	if err != nil {
		return err
	}
	vr.outArgsBuffer = args
	vr.outArgsView = vr.bindlessHeap.Alloc()
	vr.bindless.WriteStorageView(vr.context, vr.outArgsView, args.Handle, 0, args.Size)

	count, err := BufferCreate(
		vr.context,
		4,
		vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit|vk.BufferUsageIndirectBufferBit|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		false)
	if err != nil {
		return err
	}
	vr.outCountBuffer = count
	vr.outCountView = vr.bindlessHeap.Alloc()
	vr.bindless.WriteStorageView(vr.context, vr.outCountView, count.Handle, 0, count.Size)

	return nil
}

// Shutdown tears the backend down in reverse creation order after draining
// both queues.
func (vr *VulkanRenderer) Shutdown() error {
	vr.directQueue.Flush()
	vr.copyQueue.Flush()
	vr.updateAvailableCommandLists()
	if len(vr.executingCommandLists) != 0 {
		core.LogWarn("%d command lists still executing after flush", len(vr.executingCommandLists))
	}

	device := vr.context.Device.LogicalDevice
	vk.DeviceWaitIdle(device)

	for _, cmd := range vr.availableCommandLists {
		cmd.destroy(vr)
	}
	vr.availableCommandLists = nil

	for _, mesh := range vr.freeWritableMeshes {
		mesh.destroy(vr)
	}
	vr.freeWritableMeshes = nil
	for _, args := range vr.freeWritableArgBuffers {
		args.destroy(vr)
	}
	vr.freeWritableArgBuffers = nil

	for _, pool := range vr.freeUploadPools {
		pool.buffer.Destroy(vr.context)
	}
	vr.freeUploadPools = nil

	vr.outArgsBuffer.Destroy(vr.context)
	vr.outCountBuffer.Destroy(vr.context)

	// Remaining meshes and materials follow the process down in release
	// builds; sweeping them here keeps the validation layer quiet.
	vr.meshPool.Each(func(_ uint32, data *MeshData) {
		if data.vbuffer != nil {
			data.vbuffer.Destroy(vr.context)
			data.ibuffer.Destroy(vr.context)
		}
	})
	vr.materialPool.Each(func(_ uint32, data *MaterialData) {
		if data.texture != nil {
			data.texture.Destroy(vr.context)
		}
	})

	for _, block := range vr.garbage {
		block.Destroy(vr.context)
	}
	vr.garbage = nil

	for i := 0; i < framesInFlight; i++ {
		vk.DestroySemaphore(device, vr.imageAvailableSemaphores[i], vr.context.Allocator)
		vk.DestroySemaphore(device, vr.queueCompleteSemaphores[i], vr.context.Allocator)
	}

	vk.DestroyPipeline(device, vr.lightingPipeline, vr.context.Allocator)
	vk.DestroyPipeline(device, vr.linePipeline, vr.context.Allocator)
	vk.DestroyPipeline(device, vr.cullPipeline, vr.context.Allocator)
	vk.DestroyPipelineLayout(device, vr.pipelineLayout, vr.context.Allocator)

	for i := 0; i < maxSwapchainImages; i++ {
		vr.rtvHeap.Free(vr.swapchainRTVs[i])
	}
	vr.dsvHeap.Free(vr.depthView)

	vr.swapchain.SwapchainDestroy(vr.context)
	vk.DestroyRenderPass(device, vr.renderPass, vr.context.Allocator)

	vr.bindless.Destroy(vr.context)

	vr.copyQueue.Release()
	vr.directQueue.Release()

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.debug && vr.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	return nil
}

// HandleResize rebuilds the swapchain, its framebuffers, and the depth
// buffer at the new dimensions. The render-target view slots are reused, so
// handles into the view heaps stay valid. Zero dimensions (minimized
// window) are ignored.
func (vr *VulkanRenderer) HandleResize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}

	vr.directQueue.Flush()

	sc, err := vr.swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.swapchain = sc

	if err := vr.swapchain.RegenerateFramebuffers(vr.context, vr.renderPass); err != nil {
		return err
	}

	for i := range vr.swapchainFences {
		vr.swapchainFences[i] = 0
	}

	core.LogDebug("Resized swapchain (%d x %d)", width, height)
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
