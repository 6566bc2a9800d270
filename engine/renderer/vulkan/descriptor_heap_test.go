package vulkan

import "testing"

func TestDescriptorHeapUniqueness(t *testing.T) {
	heap := NewDescriptorHeap(64, heapIDBindless)

	outstanding := make(map[uint32]bool)
	for i := 0; i < 64; i++ {
		d := heap.Alloc()
		if outstanding[d.Index] {
			t.Fatalf("index %d handed out twice while outstanding", d.Index)
		}
		outstanding[d.Index] = true
	}
	if heap.FreeCount() != 0 {
		t.Fatalf("free count %d after allocating everything", heap.FreeCount())
	}
}

func TestDescriptorHeapFreeThenRealloc(t *testing.T) {
	heap := NewDescriptorHeap(8, heapIDRenderTarget)

	d := heap.Alloc()
	heap.Free(d)

	d2 := heap.Alloc()
	if d2.Index != d.Index {
		t.Fatalf("expected LIFO slot reuse, got %d then %d", d.Index, d2.Index)
	}
	if d2.meta == d.meta {
		t.Fatal("reallocated descriptor should carry a new generation")
	}
}

func TestDescriptorHeapStaleFreePanics(t *testing.T) {
	heap := NewDescriptorHeap(8, heapIDDepthStencil)

	d := heap.Alloc()
	heap.Free(d)

	defer func() {
		if recover() == nil {
			t.Fatal("freeing a stale descriptor should fail validation")
		}
	}()
	heap.Free(d)
}

func TestDescriptorHeapCrossHeapPanics(t *testing.T) {
	a := NewDescriptorHeap(8, heapIDRenderTarget)
	b := NewDescriptorHeap(8, heapIDDepthStencil)

	d := a.Alloc()

	defer func() {
		if recover() == nil {
			t.Fatal("using a descriptor against a foreign heap should fail validation")
		}
	}()
	b.Free(d)
}
