package math

import (
	"math"
	"testing"
)

const epsilon = 1e-5

func nearlyEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < epsilon
}

func TestMat4MulIdentity(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	out := m.Mul(NewMat4Identity())
	if out != m {
		t.Fatalf("M * I != M: %v", out)
	}
	out = NewMat4Identity().Mul(m)
	if out != m {
		t.Fatalf("I * M != M: %v", out)
	}
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := NewMat4Translation(NewVec3(3, -2, 7)).Mul(NewMat4EulerY(0.7)).Mul(NewMat4Scale(NewVec3(2, 2, 2)))
	round := m.Mul(m.Inverse())

	identity := NewMat4Identity()
	for i := 0; i < 16; i++ {
		if !nearlyEqual(round.Data[i], identity.Data[i]) {
			t.Fatalf("M * M^-1 element %d = %f, want %f", i, round.Data[i], identity.Data[i])
		}
	}
}

func TestTranslationTransformsPoints(t *testing.T) {
	m := NewMat4Translation(NewVec3(0, 0, -3))
	p := NewVec3(0, 0, 0).TransformPoint(m)
	if !nearlyEqual(p.Z, -3) {
		t.Fatalf("translated point z = %f, want -3", p.Z)
	}
}

func projectDepth(proj Mat4, viewZ float32) float32 {
	clip := NewVec4(0, 0, viewZ, 1).Transform(proj)
	return clip.Z / clip.W
}

func TestReverseZDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(10.0)
	proj := NewMat4PerspectiveReverseZ(Pi32/2, 1.0, near, far)

	if d := projectDepth(proj, -near); !nearlyEqual(d, 1.0) {
		t.Fatalf("near plane should map to depth 1, got %f", d)
	}
	if d := projectDepth(proj, -far); !nearlyEqual(d, 0.0) {
		t.Fatalf("far plane should map to depth 0, got %f", d)
	}
}

func TestReverseZCloserFragmentWins(t *testing.T) {
	proj := NewMat4PerspectiveReverseZ(Pi32/2, 1.0, 0.1, 10.0)

	// With a GREATER compare the closer fragment must produce the greater
	// depth value.
	closer := projectDepth(proj, -0.2)
	further := projectDepth(proj, -0.5)
	if closer <= further {
		t.Fatalf("closer fragment depth %f should exceed further fragment depth %f", closer, further)
	}
}

func TestReverseZDepthMonotone(t *testing.T) {
	proj := NewMat4PerspectiveReverseZ(Pi32/3, 16.0/9.0, 0.1, 100.0)

	prev := float32(2.0)
	for _, z := range []float32{0.1, 0.5, 1, 5, 20, 99, 100} {
		d := projectDepth(proj, -z)
		if d >= prev {
			t.Fatalf("depth should strictly decrease with distance: d(%f) = %f, previous %f", z, d, prev)
		}
		prev = d
	}
}

func TestLookAtFacesTarget(t *testing.T) {
	view := NewMat4LookAt(NewVec3(0, 0, 3), NewVec3(0, 0, 0), NewVec3(0, 1, 0))
	p := NewVec3(0, 0, 0).TransformPoint(view)
	if !nearlyEqual(p.X, 0) || !nearlyEqual(p.Y, 0) || !nearlyEqual(p.Z, -3) {
		t.Fatalf("target should land on the -z axis at distance 3, got %v", p)
	}
}
