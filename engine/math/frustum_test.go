package math

import "testing"

// cameraAt builds the view-projection of a camera sitting at position,
// facing -z, mirroring what the frame pipeline computes from FrameData.
func cameraAt(position Vec3, fov, aspect, near, far float32) Frustum {
	view := NewMat4Translation(position).Inverse()
	proj := NewMat4PerspectiveReverseZ(fov/aspect, aspect, near, far)
	return NewFrustumFromViewProjection(view.Mul(proj))
}

func TestFrustumKeepsVisibleTriangle(t *testing.T) {
	// The single-triangle scenario: unit triangle at the origin, camera at
	// (0, 0, 3) looking down -z.
	frustum := cameraAt(NewVec3(0, 0, 3), Pi32/2, 1.0, 0.1, 10.0)

	box := Extents3D{Min: NewVec3(0, 0, 0), Max: NewVec3(1, 1, 0)}
	if !frustum.IntersectsAABB(box) {
		t.Fatal("triangle in front of the camera was culled")
	}
}

func TestFrustumCullsTranslatedTriangle(t *testing.T) {
	frustum := cameraAt(NewVec3(0, 0, 3), Pi32/2, 1.0, 0.1, 10.0)

	// Same triangle translated to x = 100: fully outside.
	box := Extents3D{Min: NewVec3(100, 0, 0), Max: NewVec3(101, 1, 0)}
	if frustum.IntersectsAABB(box) {
		t.Fatal("triangle far off to the side was not culled")
	}
}

func TestFrustumCullsBehindCamera(t *testing.T) {
	frustum := cameraAt(NewVec3(0, 0, 3), Pi32/2, 1.0, 0.1, 10.0)

	box := Extents3D{Min: NewVec3(-0.5, -0.5, 5), Max: NewVec3(0.5, 0.5, 6)}
	if frustum.IntersectsAABB(box) {
		t.Fatal("box behind the camera was not culled")
	}
}

func TestFrustumCullsBeyondFarPlane(t *testing.T) {
	frustum := cameraAt(NewVec3(0, 0, 3), Pi32/2, 1.0, 0.1, 10.0)

	box := Extents3D{Min: NewVec3(-0.5, -0.5, -20), Max: NewVec3(0.5, 0.5, -19)}
	if frustum.IntersectsAABB(box) {
		t.Fatal("box beyond the far plane was not culled")
	}
}

func TestFrustumKeepsEveryInsideInstance(t *testing.T) {
	frustum := cameraAt(NewVec3(0, 0, 5), Pi32/2, 1.0, 0.1, 100.0)

	// A grid of small boxes well inside the frustum: all must survive,
	// mirroring the cull-idempotence property.
	kept := 0
	total := 0
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			total++
			base := NewVec3(float32(x), float32(y), 0)
			box := Extents3D{Min: base.Sub(NewVec3(0.1, 0.1, 0.1)), Max: base.Add(NewVec3(0.1, 0.1, 0.1))}
			if frustum.IntersectsAABB(box) {
				kept++
			}
		}
	}
	if kept != total {
		t.Fatalf("only %d of %d fully-visible instances survived", kept, total)
	}
}

func TestTransformAABB(t *testing.T) {
	box := Extents3D{Min: NewVec3(-1, -1, -1), Max: NewVec3(1, 1, 1)}
	moved := TransformAABB(box, NewMat4Translation(NewVec3(10, 0, 0)))

	if moved.Min.X != 9 || moved.Max.X != 11 {
		t.Fatalf("translated box x range [%f, %f], want [9, 11]", moved.Min.X, moved.Max.X)
	}
	if moved.Min.Y != -1 || moved.Max.Y != 1 {
		t.Fatalf("translated box y range [%f, %f], want [-1, 1]", moved.Min.Y, moved.Max.Y)
	}
}
