package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

// ConstantBuffer is a 256-byte slice of a larger mapped block, paired with a
// bindless uniform view. Buffers circulate between the renderer's free list
// and the command lists that consumed them.
type ConstantBuffer struct {
	ptr  []byte
	View Descriptor
}

// growConstantBufferPool carves a fresh block into free-listed constant
// buffers. The first block is small; later blocks are allocated in bulk
// because a renderer that outgrew one block will keep doing so.
func (vr *VulkanRenderer) growConstantBufferPool() error {
	blockSize := constantBufferBlockSize
	if vr.constantBufferBlocks > 0 {
		blockSize = constantBufferBulkBlockSize
	}
	vr.constantBufferBlocks++
	core.LogDebug("Creating a constant buffer pool (%d constant buffers)", blockSize)

	block, err := BufferCreate(
		vr.context,
		uint64(constantBufferSize*blockSize),
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		return err
	}

	// Blocks live until teardown; only the 256-byte slices circulate.
	vr.garbage = append(vr.garbage, block)

	for i := 0; i < blockSize; i++ {
		offset := uint64(i * constantBufferSize)

		cbuffer := &ConstantBuffer{
			ptr:  block.Mapped[offset : offset+constantBufferSize],
			View: vr.bindlessHeap.Alloc(),
		}
		vr.bindless.WriteUniformView(vr.context, cbuffer.View, block.Handle, offset, constantBufferSize)

		vr.freeConstantBuffers = append(vr.freeConstantBuffers, cbuffer)
	}
	return nil
}

// getConstantBuffer pops a free constant buffer and copies data into it.
func (vr *VulkanRenderer) getConstantBuffer(data []byte) (*ConstantBuffer, error) {
	if len(vr.freeConstantBuffers) == 0 {
		if err := vr.growConstantBufferPool(); err != nil {
			return nil, err
		}
	}

	n := len(vr.freeConstantBuffers)
	cbuffer := vr.freeConstantBuffers[n-1]
	vr.freeConstantBuffers = vr.freeConstantBuffers[:n-1]

	if len(data) > constantBufferSize {
		core.LogFatal("constant buffer payload of %d bytes exceeds %d", len(data), constantBufferSize)
	}
	copy(cbuffer.ptr, data)

	return cbuffer, nil
}

// dropConstantBuffer stashes the buffer on the command list; the recycler
// returns it to the free list once the submission retires.
func dropConstantBuffer(cmd *CommandList, cbuffer *ConstantBuffer) {
	cmd.constantBuffers = append(cmd.constantBuffers, cbuffer)
}
