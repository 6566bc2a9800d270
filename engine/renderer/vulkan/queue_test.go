package vulkan

import "testing"

func TestTimelineSignalMonotonic(t *testing.T) {
	var tl timeline

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		v := tl.signal()
		if v <= prev {
			t.Fatalf("signal returned %d after %d; values must strictly increase", v, prev)
		}
		prev = v
	}
}

func TestTimelineReachedMonotone(t *testing.T) {
	var tl timeline

	first := tl.signal()
	second := tl.signal()

	if tl.reached(first) || tl.reached(second) {
		t.Fatal("nothing completed yet")
	}

	tl.complete(first)
	if !tl.reached(first) {
		t.Fatal("first value should be reached after completion")
	}
	if tl.reached(second) {
		t.Fatal("second value must not be reached before completion")
	}

	tl.complete(second)
	if !tl.reached(first) || !tl.reached(second) {
		t.Fatal("reached must stay true once a value completes")
	}
}

func TestTimelineCompleteNeverRegresses(t *testing.T) {
	var tl timeline

	a := tl.signal()
	b := tl.signal()
	tl.complete(b)

	// A stale completion for an earlier value must not roll the clock back.
	tl.complete(a)
	if !tl.reached(b) {
		t.Fatal("completing an older value regressed the timeline")
	}
}

func TestTimelineZeroAlwaysReached(t *testing.T) {
	var tl timeline
	// Value 0 predates every signal; waiting on it must not block. This is
	// what lets the first frame proceed on a fresh swapchain fence slot.
	if !tl.reached(0) {
		t.Fatal("the zero fence value should always read as reached")
	}
}
