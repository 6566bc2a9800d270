package metadata

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/spaghettifunk/vetro/engine/math"
)

func TestIndirectCommandLayout(t *testing.T) {
	cmd := IndirectCommand{
		VBufferIndex:   11,
		IBufferIndex:   22,
		TransformIndex: 33,
		TextureIndex:   44,
		VertexCount:    300,
		InstanceCount:  1,
		StartVertex:    0,
		StartInstance:  7,
	}

	buf := make([]byte, IndirectCommandSize)
	cmd.Encode(buf)

	// The indirect engine reads the draw-argument tail at offset 16 with
	// the record stride: vertexCount, instanceCount, firstVertex,
	// firstInstance.
	tail := buf[IndirectDrawArgsOffset:]
	if got := binary.LittleEndian.Uint32(tail[0:]); got != 300 {
		t.Fatalf("vertex count at tail offset 0 = %d, want 300", got)
	}
	if got := binary.LittleEndian.Uint32(tail[4:]); got != 1 {
		t.Fatalf("instance count at tail offset 4 = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(tail[12:]); got != 7 {
		t.Fatalf("first instance at tail offset 12 = %d, want 7", got)
	}

	// The leading four values are the bindless indices, in command
	// signature slot order.
	for i, want := range []uint32{11, 22, 33, 44} {
		if got := binary.LittleEndian.Uint32(buf[i*4:]); got != want {
			t.Fatalf("index slot %d = %d, want %d", i+1, got, want)
		}
	}
}

func TestCullInputLayout(t *testing.T) {
	in := CullInput{
		Command:   IndirectCommand{VertexCount: 3, InstanceCount: 1},
		BoundsMin: math.NewVec3(-1, -2, -3),
		BoundsMax: math.NewVec3(4, 5, 6),
	}

	buf := make([]byte, CullInputSize)
	in.Encode(buf)

	if got := binary.LittleEndian.Uint32(buf[16:]); got != 3 {
		t.Fatalf("embedded command vertex count = %d, want 3", got)
	}

	readFloat := func(off int) float32 {
		return floatFromBits(binary.LittleEndian.Uint32(buf[off:]))
	}
	if readFloat(32) != -1 || readFloat(40) != -3 {
		t.Fatal("bounds min not at offset 32")
	}
	if readFloat(48) != 4 || readFloat(56) != 6 {
		t.Fatal("bounds max not at offset 48")
	}
}

func floatFromBits(b uint32) float32 {
	return stdmath.Float32frombits(b)
}
