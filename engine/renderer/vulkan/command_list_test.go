package vulkan

import "testing"

// fakeFence stands in for a queue during recycler tests.
type fakeFence struct {
	completed uint64
}

func (f *fakeFence) Reached(val uint64) bool {
	return f.completed >= val
}

func testRenderer() *VulkanRenderer {
	return &VulkanRenderer{}
}

func executingList(listType CommandListType, queue fenceSource, fenceVal uint64) *CommandList {
	return &CommandList{
		Type:     listType,
		State:    CommandListStateExecuting,
		queue:    queue,
		fenceVal: fenceVal,
	}
}

func TestRecyclerReturnsUploadPoolsRewound(t *testing.T) {
	vr := testRenderer()
	queue := &fakeFence{}

	pool := &UploadPool{cursor: 12345}
	cmd := executingList(CommandListTypeCopy, queue, 1)
	cmd.uploadPools = append(cmd.uploadPools, pool)
	vr.executingCommandLists = append(vr.executingCommandLists, cmd)

	vr.updateAvailableCommandLists()
	if len(vr.freeUploadPools) != 0 {
		t.Fatal("pool recycled before its fence was reached")
	}

	queue.completed = 1
	vr.updateAvailableCommandLists()

	if pool.cursor != 0 {
		t.Fatalf("recycled pool has cursor %d, want 0", pool.cursor)
	}
	seen := 0
	for _, p := range vr.freeUploadPools {
		if p == pool {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("pool appears %d times in the free list, want exactly once", seen)
	}
}

func TestRecyclerStateTransitions(t *testing.T) {
	vr := testRenderer()
	queue := &fakeFence{}

	cmd := executingList(CommandListTypeDirect, queue, 3)
	vr.executingCommandLists = append(vr.executingCommandLists, cmd)

	vr.updateAvailableCommandLists()
	if cmd.State != CommandListStateExecuting {
		t.Fatal("list left the executing state before its fence was reached")
	}
	if len(vr.availableCommandLists) != 0 {
		t.Fatal("unretired list moved to the available set")
	}

	queue.completed = 3
	vr.updateAvailableCommandLists()
	if cmd.State != CommandListStateFree {
		t.Fatalf("retired list state = %d, want free", cmd.State)
	}
	if len(vr.availableCommandLists) != 1 || len(vr.executingCommandLists) != 0 {
		t.Fatal("retired list not moved to the available set")
	}
}

func TestRecyclerReturnsConstantBuffers(t *testing.T) {
	vr := testRenderer()
	queue := &fakeFence{completed: 5}

	a := &ConstantBuffer{}
	b := &ConstantBuffer{}
	cmd := executingList(CommandListTypeDirect, queue, 4)
	cmd.constantBuffers = append(cmd.constantBuffers, a, b)
	vr.executingCommandLists = append(vr.executingCommandLists, cmd)

	vr.updateAvailableCommandLists()
	if len(vr.freeConstantBuffers) != 2 {
		t.Fatalf("free list has %d constant buffers, want 2", len(vr.freeConstantBuffers))
	}
	if len(cmd.constantBuffers) != 0 {
		t.Fatal("command list kept its consumed constant buffers")
	}
}

func TestRecyclerReleasesResourcesExactlyOnce(t *testing.T) {
	vr := testRenderer()
	queue := &fakeFence{completed: 1}

	released := 0
	slot := vr.acquireReleasableSlot(func() { released++ })

	cmd := executingList(CommandListTypeCopy, queue, 1)
	cmd.releasables = append(cmd.releasables, slot)
	vr.executingCommandLists = append(vr.executingCommandLists, cmd)

	vr.updateAvailableCommandLists()
	if released != 1 {
		t.Fatalf("resource released %d times, want 1", released)
	}

	// The slot header is pooled; releasing it again must be a no-op.
	slot.release()
	if released != 1 {
		t.Fatalf("pooled slot re-ran its destroy closure (%d releases)", released)
	}
	if len(vr.freeReleasableSlots) != 1 {
		t.Fatalf("slot header not returned to the pool")
	}
}

func TestRecyclerKeepsUnretiredLists(t *testing.T) {
	vr := testRenderer()
	fast := &fakeFence{completed: 10}
	slow := &fakeFence{completed: 0}

	done := executingList(CommandListTypeDirect, fast, 2)
	busy := executingList(CommandListTypeDirect, slow, 2)
	vr.executingCommandLists = append(vr.executingCommandLists, done, busy)

	vr.updateAvailableCommandLists()
	if len(vr.executingCommandLists) != 1 || vr.executingCommandLists[0] != busy {
		t.Fatal("the unretired list should remain executing")
	}
	if len(vr.availableCommandLists) != 1 || vr.availableCommandLists[0] != done {
		t.Fatal("the retired list should be available")
	}
}
