package containers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spaghettifunk/vetro/engine/core"
)

func TestArenaPushRoundTrip(t *testing.T) {
	arena := NewArena(256)

	payload := []byte{1, 2, 3, 4, 5}
	mem, err := arena.Push(uint64(len(payload)))
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	copy(mem, payload)

	if !bytes.Equal(mem, payload) {
		t.Fatalf("read-back mismatch: got %v want %v", mem, payload)
	}
	if arena.Cursor() != 8 {
		t.Fatalf("cursor should advance to the aligned size, got %d", arena.Cursor())
	}

	// A second push must not alias the first.
	mem2, err := arena.Push(3)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	mem2[0] = 0xFF
	if mem[0] != 1 {
		t.Fatal("second push aliased the first allocation")
	}
}

func TestArenaAlignment(t *testing.T) {
	arena := NewArena(64)
	for _, n := range []uint64{1, 7, 8, 9} {
		before := arena.Cursor()
		if _, err := arena.Push(n); err != nil {
			t.Fatalf("push(%d) failed: %v", n, err)
		}
		advanced := arena.Cursor() - before
		if advanced != (n+7)&^7 {
			t.Fatalf("push(%d) advanced %d, want %d", n, advanced, (n+7)&^7)
		}
	}
}

func TestArenaExhaustion(t *testing.T) {
	arena := NewArena(16)
	if _, err := arena.Push(16); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if _, err := arena.Push(1); !errors.Is(err, core.ErrOutOfArena) {
		t.Fatalf("expected ErrOutOfArena, got %v", err)
	}
	arena.Clear()
	if _, err := arena.Push(16); err != nil {
		t.Fatalf("push after clear failed: %v", err)
	}
}

func TestArenaPushZero(t *testing.T) {
	arena := NewArena(32)
	mem, _ := arena.Push(8)
	for i := range mem {
		mem[i] = 0xAB
	}
	arena.Clear()

	mem, err := arena.PushZero(8)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	for i, b := range mem {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, b)
		}
	}
}

func TestScratchNonConflict(t *testing.T) {
	pool := NewScratchPool(128)

	lease, err := pool.GetScratch()
	if err != nil {
		t.Fatalf("lease failed: %v", err)
	}

	other, err := pool.GetScratch(lease.Arena)
	if err != nil {
		t.Fatalf("second lease failed: %v", err)
	}
	if other.Arena == lease.Arena {
		t.Fatal("scratch pool returned a conflicting arena")
	}

	if _, err := pool.GetScratch(lease.Arena, other.Arena); !errors.Is(err, core.ErrNoScratchAvailable) {
		t.Fatalf("expected ErrNoScratchAvailable, got %v", err)
	}

	lease.Release()
	other.Release()
}

func TestScratchCursorRestore(t *testing.T) {
	pool := NewScratchPool(128)

	lease, _ := pool.GetScratch()
	if _, err := lease.Arena.Push(24); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	inner, _ := pool.GetScratch()
	if inner.Arena != lease.Arena {
		t.Fatal("expected the same arena for a non-conflicting lease")
	}
	if _, err := inner.Arena.Push(40); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	inner.Release()

	if lease.Arena.Cursor() != 24 {
		t.Fatalf("inner release should restore the cursor to 24, got %d", lease.Arena.Cursor())
	}

	lease.Release()
	if lease.Arena.Cursor() != 0 {
		t.Fatalf("outer release should restore the cursor to 0, got %d", lease.Arena.Cursor())
	}
}

func TestScratchReleaseAfterRewind(t *testing.T) {
	pool := NewScratchPool(128)

	lease, _ := pool.GetScratch()
	lease.Arena.Push(64)

	inner := ScratchLease{Arena: lease.Arena, mark: lease.Arena.Cursor()}
	lease.Arena.Clear()

	// The cursor already retreated below the inner mark; releasing must not
	// push it forward again.
	inner.Release()
	if lease.Arena.Cursor() != 0 {
		t.Fatalf("release advanced a rewound cursor to %d", lease.Arena.Cursor())
	}
}
