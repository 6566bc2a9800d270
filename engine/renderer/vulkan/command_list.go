package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

type CommandListType int

const (
	CommandListTypeDirect CommandListType = iota
	CommandListTypeCopy
)

type CommandListState int

const (
	CommandListStateFree CommandListState = iota
	CommandListStateRecording
	CommandListStateExecuting
)

// CommandList owns a command pool and one primary buffer, plus the in-flight
// resource lists appended during recording. Everything on those lists is
// recycled or released when the list's fence value is reached.
type CommandList struct {
	Type   CommandListType
	State  CommandListState
	Buffer vk.CommandBuffer

	pool     vk.CommandPool
	fenceVal uint64
	queue    fenceSource

	uploadPools        []*UploadPool
	constantBuffers    []*ConstantBuffer
	writableMeshes     []*WritableMesh
	writableArgBuffers []*WritableArgumentBuffer
	releasables        []*ReleasableResource
}

func (vr *VulkanRenderer) newCommandList(listType CommandListType) (*CommandList, error) {
	cmd := &CommandList{
		Type: listType,
	}

	family := vr.directQueue.Family
	if listType == CommandListTypeCopy {
		family = vr.copyQueue.Family
	}

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(vr.context.Device.LogicalDevice, &poolInfo, vr.context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create command pool with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	cmd.pool = pool

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cmd.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(vr.context.Device.LogicalDevice, &allocateInfo, buffers); res != vk.Success {
		err := fmt.Errorf("failed to allocate command buffer with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	cmd.Buffer = buffers[0]

	core.LogDebug("Allocated a command list.")
	return cmd, nil
}

// releaseInFlight hands everything the command list consumed back to its
// pool. Upload pools come back rewound; releasable resources are destroyed
// and their slot headers pooled.
func (vr *VulkanRenderer) releaseInFlight(cmd *CommandList) {
	for _, pool := range cmd.uploadPools {
		pool.rewind()
		vr.freeUploadPools = append(vr.freeUploadPools, pool)
	}
	cmd.uploadPools = cmd.uploadPools[:0]

	vr.freeConstantBuffers = append(vr.freeConstantBuffers, cmd.constantBuffers...)
	cmd.constantBuffers = cmd.constantBuffers[:0]

	vr.freeWritableMeshes = append(vr.freeWritableMeshes, cmd.writableMeshes...)
	cmd.writableMeshes = cmd.writableMeshes[:0]

	vr.freeWritableArgBuffers = append(vr.freeWritableArgBuffers, cmd.writableArgBuffers...)
	cmd.writableArgBuffers = cmd.writableArgBuffers[:0]

	for _, slot := range cmd.releasables {
		vr.returnReleasableSlot(slot)
	}
	cmd.releasables = cmd.releasables[:0]
}

// updateAvailableCommandLists sweeps the executing lists and recycles every
// one whose fence has been reached.
func (vr *VulkanRenderer) updateAvailableCommandLists() {
	remaining := vr.executingCommandLists[:0]
	for _, cmd := range vr.executingCommandLists {
		if cmd.queue.Reached(cmd.fenceVal) {
			vr.releaseInFlight(cmd)
			cmd.State = CommandListStateFree
			cmd.queue = nil
			vr.availableCommandLists = append(vr.availableCommandLists, cmd)
		} else {
			remaining = append(remaining, cmd)
		}
	}
	vr.executingCommandLists = remaining
}

// openCommandList returns a recording command list of the requested type,
// recycling retired ones first and growing the pool when none fit.
func (vr *VulkanRenderer) openCommandList(listType CommandListType) (*CommandList, error) {
	vr.updateAvailableCommandLists()

	var found *CommandList
	for i, cmd := range vr.availableCommandLists {
		if cmd.Type == listType {
			found = cmd
			vr.availableCommandLists = append(vr.availableCommandLists[:i], vr.availableCommandLists[i+1:]...)
			break
		}
	}

	if found == nil {
		cmd, err := vr.newCommandList(listType)
		if err != nil {
			return nil, err
		}
		found = cmd
	}

	if res := vk.ResetCommandPool(vr.context.Device.LogicalDevice, found.pool, 0); res != vk.Success {
		err := fmt.Errorf("failed to reset command pool with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(found.Buffer, &beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin command buffer with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	found.State = CommandListStateRecording

	if found.Type == CommandListTypeDirect {
		// The bindless table backs both the graphics and the compute root
		// layout; binding it once here covers every pipeline the list uses.
		sets := []vk.DescriptorSet{vr.bindless.Set}
		vk.CmdBindDescriptorSets(found.Buffer, vk.PipelineBindPointGraphics, vr.pipelineLayout, 0, 1, sets, 0, nil)
		vk.CmdBindDescriptorSets(found.Buffer, vk.PipelineBindPointCompute, vr.pipelineLayout, 0, 1, sets, 0, nil)
	}

	return found, nil
}

// submitCommandList closes the list, executes it on the queue, signals the
// queue, and moves the list to the executing set. The optional semaphores
// serialize against swapchain acquire and present.
func (vr *VulkanRenderer) submitCommandList(cmd *CommandList, queue *CommandQueue, waitSemaphore, signalSemaphore vk.Semaphore) error {
	if res := vk.EndCommandBuffer(cmd.Buffer); res != vk.Success {
		err := fmt.Errorf("failed to end command buffer with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd.Buffer},
	}
	if waitSemaphore != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{waitSemaphore}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	}
	if signalSemaphore != vk.NullSemaphore {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signalSemaphore}
	}

	if res := vk.QueueSubmit(queue.Handle, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}

	cmd.fenceVal = queue.Signal()
	cmd.queue = queue
	cmd.State = CommandListStateExecuting
	vr.executingCommandLists = append(vr.executingCommandLists, cmd)
	return nil
}

func (cmd *CommandList) destroy(vr *VulkanRenderer) {
	vk.FreeCommandBuffers(vr.context.Device.LogicalDevice, cmd.pool, 1, []vk.CommandBuffer{cmd.Buffer})
	vk.DestroyCommandPool(vr.context.Device.LogicalDevice, cmd.pool, vr.context.Allocator)
	cmd.Buffer = nil
	cmd.pool = vk.NullCommandPool
}
