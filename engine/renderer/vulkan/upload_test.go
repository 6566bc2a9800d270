package vulkan

import "testing"

func TestUploadPoolAllocAligns(t *testing.T) {
	pool := &UploadPool{}

	off, ok := pool.alloc(100)
	if !ok || off != 0 {
		t.Fatalf("first chunk at offset %d, want 0", off)
	}

	off, ok = pool.alloc(100)
	if !ok || off != chunkAlign {
		t.Fatalf("second chunk at offset %d, want %d", off, chunkAlign)
	}
}

func TestUploadPoolAllocExhaustion(t *testing.T) {
	pool := &UploadPool{}

	if _, ok := pool.alloc(uploadPoolCapacity); !ok {
		t.Fatal("a full-capacity chunk should fit an empty pool")
	}
	if _, ok := pool.alloc(1); ok {
		t.Fatal("a full pool accepted another chunk")
	}

	pool.rewind()
	if pool.cursor != 0 {
		t.Fatalf("rewound pool has cursor %d", pool.cursor)
	}
	if _, ok := pool.alloc(1); !ok {
		t.Fatal("a rewound pool should accept chunks again")
	}
}

func TestFirstPoolWithRoom(t *testing.T) {
	full := &UploadPool{cursor: uploadPoolCapacity}
	half := &UploadPool{cursor: uploadPoolCapacity / 2}

	if got := firstPoolWithRoom([]*UploadPool{full, half}, 1024); got != half {
		t.Fatal("expected the first pool that still has room")
	}
	if got := firstPoolWithRoom([]*UploadPool{full}, 1024); got != nil {
		t.Fatal("expected nil when every pool is full")
	}
	if got := firstPoolWithRoom(nil, 1024); got != nil {
		t.Fatal("expected nil for a list with no pools attached")
	}
}
