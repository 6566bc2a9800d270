package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

// timeline is the CPU bookkeeping of a queue's monotonic fence. Values are
// handed out by signal and retired strictly in order, which is what the
// GPU guarantees for fences submitted to one queue.
type timeline struct {
	signaledVal  uint64
	completedVal uint64
}

func (t *timeline) signal() uint64 {
	t.signaledVal++
	return t.signaledVal
}

func (t *timeline) complete(val uint64) {
	if val > t.completedVal {
		t.completedVal = val
	}
}

func (t *timeline) reached(val uint64) bool {
	return t.completedVal >= val
}

// pendingSignal associates a signaled timeline value with the fence that
// retires it.
type pendingSignal struct {
	value uint64
	fence vk.Fence
}

// fenceSource is what the command-list recycler needs from a queue.
type fenceSource interface {
	Reached(val uint64) bool
}

// CommandQueue wraps a device queue with a monotonic 64-bit fence. Signal
// submits an empty batch whose fence completes once all prior work on the
// queue has; that gives the same semantics as a timeline counter.
type CommandQueue struct {
	context  *VulkanContext
	Handle   vk.Queue
	Family   uint32
	timeline timeline
	pending  []pendingSignal
	free     []vk.Fence
}

func NewCommandQueue(context *VulkanContext, family uint32) *CommandQueue {
	var handle vk.Queue
	vk.GetDeviceQueue(context.Device.LogicalDevice, family, 0, &handle)
	return &CommandQueue{
		context: context,
		Handle:  handle,
		Family:  family,
	}
}

func (q *CommandQueue) Release() {
	q.Flush()
	q.sweep()
	for _, fence := range q.free {
		vk.DestroyFence(q.context.Device.LogicalDevice, fence, q.context.Allocator)
	}
	q.free = nil
}

func (q *CommandQueue) getFence() vk.Fence {
	if n := len(q.free); n > 0 {
		fence := q.free[n-1]
		q.free = q.free[:n-1]
		return fence
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if res := vk.CreateFence(q.context.Device.LogicalDevice, &fenceInfo, q.context.Allocator, &fence); res != vk.Success {
		core.LogFatal("failed to create queue fence with %s", VulkanResultString(res))
	}
	return fence
}

// sweep retires pending signals whose fences have completed. Fences on one
// queue complete in submission order, so the scan stops at the first
// unsignaled one.
func (q *CommandQueue) sweep() {
	retired := 0
	for _, p := range q.pending {
		if vk.GetFenceStatus(q.context.Device.LogicalDevice, p.fence) != vk.Success {
			break
		}
		q.timeline.complete(p.value)
		vk.ResetFences(q.context.Device.LogicalDevice, 1, []vk.Fence{p.fence})
		q.free = append(q.free, p.fence)
		retired++
	}
	q.pending = q.pending[retired:]
}

// Signal places a fence after all work currently on the queue and returns
// the timeline value it will retire.
func (q *CommandQueue) Signal() uint64 {
	val := q.timeline.signal()
	fence := q.getFence()

	if res := vk.QueueSubmit(q.Handle, 0, nil, fence); res != vk.Success {
		core.LogFatal("queue signal submit failed with %s", VulkanResultString(res))
	}

	q.pending = append(q.pending, pendingSignal{value: val, fence: fence})
	return val
}

// Reached reports whether the GPU has passed the given timeline value.
func (q *CommandQueue) Reached(val uint64) bool {
	if q.timeline.reached(val) {
		return true
	}
	q.sweep()
	return q.timeline.reached(val)
}

// Wait blocks the calling thread until the queue passes the given value.
func (q *CommandQueue) Wait(val uint64) {
	if q.Reached(val) {
		return
	}

	// Waiting on the first pending fence at or past val covers every
	// earlier one too.
	for _, p := range q.pending {
		if p.value >= val {
			if res := vk.WaitForFences(q.context.Device.LogicalDevice, 1, []vk.Fence{p.fence}, vk.True, math.MaxUint64); res != vk.Success {
				core.LogFatal("fence wait failed with %s", VulkanResultString(res))
			}
			break
		}
	}
	q.sweep()

	if !q.timeline.reached(val) {
		// val was never signaled on this queue; that is a caller bug.
		core.LogFatal("wait for unsignaled fence value %d (last signaled %d)", val, q.timeline.signaledVal)
	}
}

// Flush drains the queue: wait(signal()).
func (q *CommandQueue) Flush() {
	q.Wait(q.Signal())
}
