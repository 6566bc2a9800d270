package metadata

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/vetro/engine/math"
)

// IndirectCommand is the 32-byte draw record the culling pass filters. The
// first four values are the bindless indices the vertex and fragment shaders
// fetch per draw; the last four are the draw arguments the indirect engine
// reads directly (the record's draw-argument tail starts at byte 16).
type IndirectCommand struct {
	VBufferIndex   uint32
	IBufferIndex   uint32
	TransformIndex uint32
	TextureIndex   uint32
	VertexCount    uint32
	InstanceCount  uint32
	StartVertex    uint32
	StartInstance  uint32
}

const (
	// IndirectCommandSize is the byte stride of one record.
	IndirectCommandSize = 32
	// IndirectDrawArgsOffset is where the draw-argument tail starts inside
	// a record; the indirect draw reads at this offset with the record
	// stride.
	IndirectDrawArgsOffset = 16

	// CullInputSize is the byte stride of one culling-pass input record:
	// the command plus the instance's world-space bounds.
	CullInputSize = 64
)

// CullInput is what the CPU writes per instance into the writable argument
// buffer: the draw record plus the world-space AABB the compute shader tests
// against the frustum. Bounds are vec4-padded to match the shader's std430
// layout.
type CullInput struct {
	Command   IndirectCommand
	BoundsMin math.Vec3
	BoundsMax math.Vec3
}

// Encode writes the record's wire format into the first 32 bytes of dst.
func (c IndirectCommand) Encode(dst []byte) {
	_ = dst[IndirectCommandSize-1]
	binary.LittleEndian.PutUint32(dst[0:], c.VBufferIndex)
	binary.LittleEndian.PutUint32(dst[4:], c.IBufferIndex)
	binary.LittleEndian.PutUint32(dst[8:], c.TransformIndex)
	binary.LittleEndian.PutUint32(dst[12:], c.TextureIndex)
	binary.LittleEndian.PutUint32(dst[16:], c.VertexCount)
	binary.LittleEndian.PutUint32(dst[20:], c.InstanceCount)
	binary.LittleEndian.PutUint32(dst[24:], c.StartVertex)
	binary.LittleEndian.PutUint32(dst[28:], c.StartInstance)
}

func putFloat32(dst []byte, f float32) {
	binary.LittleEndian.PutUint32(dst, stdmath.Float32bits(f))
}

// Encode writes the culling input record's wire format to dst.
func (ci CullInput) Encode(dst []byte) {
	_ = dst[CullInputSize-1]
	ci.Command.Encode(dst[0:IndirectCommandSize])
	putFloat32(dst[32:], ci.BoundsMin.X)
	putFloat32(dst[36:], ci.BoundsMin.Y)
	putFloat32(dst[40:], ci.BoundsMin.Z)
	putFloat32(dst[44:], 1)
	putFloat32(dst[48:], ci.BoundsMax.X)
	putFloat32(dst[52:], ci.BoundsMax.Y)
	putFloat32(dst[56:], ci.BoundsMax.Z)
	putFloat32(dst[60:], 1)
}
