package metadata

import (
	"github.com/spaghettifunk/vetro/engine/containers"
	"github.com/spaghettifunk/vetro/engine/math"
)

// Mesh is an opaque handle into the renderer's mesh pool.
type Mesh struct {
	Handle containers.Handle
}

// Material is an opaque handle into the renderer's material pool.
type Material struct {
	Handle containers.Handle
}

// Camera is the caller-supplied view description. Transform is the camera's
// world matrix; the renderer inverts it to obtain the view matrix.
type Camera struct {
	Transform math.Mat4
	NearPlane float32
	FarPlane  float32
	FOV       float32
}

// RenderInstance is one submission in the frame queue. A zero Material falls
// back to the renderer's default material.
type RenderInstance struct {
	Mesh      Mesh
	Material  Material
	Transform math.Mat4
}

// FrameData is everything the renderer needs to produce one frame. Line
// vertices and indices describe an optional debug overlay drawn with the
// line pipeline; NumLineIndices == 0 skips the pass.
type FrameData struct {
	Camera          Camera
	Queue           []RenderInstance
	NumLineVertices uint32
	NumLineIndices  uint32
	LineVertices    []math.Vec4
	LineIndices     []uint32
}

// MeshConfig carries the vertex and index payload of a mesh plus its local
// bounds, which feed the GPU culling pass.
type MeshConfig struct {
	Vertices []math.Vertex3D
	Indices  []uint32
	AABB     math.Extents3D
}

// ShaderBlobs is the set of compiled SPIR-V modules the renderer consumes.
// Compiling them is the host's concern.
type ShaderBlobs struct {
	LightingVertex   []byte
	LightingFragment []byte
	LineVertex       []byte
	LineFragment     []byte
	CullingCompute   []byte
}

// UploadTicket identifies a copy-queue submission. The zero ticket is
// already finished.
type UploadTicket struct {
	FenceVal uint64
}
