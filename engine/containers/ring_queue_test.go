package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](4)

	for i := 1; i <= 4; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}
	if err := rq.Enqueue(5); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	for i := 1; i <= 4; i++ {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("dequeue failed: %v", err)
		}
		if v != i {
			t.Fatalf("dequeued %d, want %d", v, i)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestRingQueueWraps(t *testing.T) {
	rq := NewRingQueue[string](2)

	rq.Enqueue("a")
	rq.Enqueue("b")
	rq.Dequeue()
	if err := rq.Enqueue("c"); err != nil {
		t.Fatalf("enqueue after wrap failed: %v", err)
	}

	if v, _ := rq.Peek(); v != "b" {
		t.Fatalf("peek = %q, want b", v)
	}
	if rq.Len() != 2 {
		t.Fatalf("len = %d, want 2", rq.Len())
	}
}
