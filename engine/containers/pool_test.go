package containers

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vetro/engine/core"
)

type poolPayload struct {
	value int
}

func TestPoolGenerations(t *testing.T) {
	pool := NewPool[poolPayload](4)

	h, err := pool.Alloc()
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if h.Generation() != 1 {
		t.Fatalf("fresh pools start every generation at 1, got %d", h.Generation())
	}

	if err := pool.Free(h); err != nil {
		t.Fatalf("free failed: %v", err)
	}

	h2, err := pool.Alloc()
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if h2.Index() != h.Index() {
		t.Fatalf("expected LIFO slot reuse, got slot %d then %d", h.Index(), h2.Index())
	}
	if pool.Alive(h) {
		t.Fatal("stale handle still validates")
	}
	if !pool.Alive(h2) {
		t.Fatal("fresh handle does not validate")
	}
	if h2.Generation() != h.Generation()+1 {
		t.Fatalf("generation should increase by exactly 1, got %d -> %d", h.Generation(), h2.Generation())
	}

	if _, err := pool.Access(h); !errors.Is(err, core.ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle for a stale handle, got %v", err)
	}
}

func TestPoolAccountInvariant(t *testing.T) {
	pool := NewPool[poolPayload](8)

	handles := make([]Handle, 0, 8)
	for i := 0; i < 5; i++ {
		h, err := pool.Alloc()
		if err != nil {
			t.Fatalf("alloc failed: %v", err)
		}
		handles = append(handles, h)
	}

	live := len(handles)
	if pool.FreeCount()+live != int(pool.Capacity()) {
		t.Fatalf("free(%d) + live(%d) != capacity(%d)", pool.FreeCount(), live, pool.Capacity())
	}

	for _, h := range handles {
		pool.Free(h)
	}
	if pool.FreeCount() != int(pool.Capacity()) {
		t.Fatalf("all slots should be free, got %d of %d", pool.FreeCount(), pool.Capacity())
	}
}

func TestPoolExhaustion(t *testing.T) {
	pool := NewPool[poolPayload](2)
	pool.Alloc()
	pool.Alloc()
	if _, err := pool.Alloc(); !errors.Is(err, core.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestPoolAccessStoresData(t *testing.T) {
	pool := NewPool[poolPayload](2)
	h, _ := pool.Alloc()

	slot, err := pool.Access(h)
	if err != nil {
		t.Fatalf("access failed: %v", err)
	}
	slot.value = 42

	again, _ := pool.Access(h)
	if again.value != 42 {
		t.Fatalf("slot data lost: got %d", again.value)
	}
}

func TestNilHandleNeverValidates(t *testing.T) {
	pool := NewPool[poolPayload](2)
	if pool.Alive(NilHandle) {
		t.Fatal("nil handle validated")
	}
}
