package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

// Mat4 is a 4x4 matrix stored row-major; vectors are rows and transform as
// v' = v * M, so concatenation reads left to right (model * view * proj).
type Mat4 struct {
	Data [16]float32
}

// Extents3D is an axis-aligned bounding box.
type Extents3D struct {
	Min Vec3
	Max Vec3
}

// Vertex3D is the interleaved mesh vertex layout consumed by the lighting
// vertex shader through its structured buffer view.
type Vertex3D struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
}
