package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

// UploadPool is a persistently-mapped staging buffer consumed front to back.
// Pools attach to the command list that records copies out of them and are
// rewound and returned to the free list once that submission retires.
type UploadPool struct {
	buffer *VulkanBuffer
	cursor uint64
}

// chunkAlign matches the strictest offset alignment a staged copy needs
// (buffer copies and tightly-packed texture rows).
const chunkAlign = 256

func (p *UploadPool) alloc(size uint64) (uint64, bool) {
	offset := (p.cursor + chunkAlign - 1) &^ (chunkAlign - 1)
	if offset+size > uploadPoolCapacity {
		return 0, false
	}
	p.cursor = offset + size
	return offset, true
}

func (p *UploadPool) rewind() {
	p.cursor = 0
}

// firstPoolWithRoom finds the earliest attached pool that can still take a
// chunk of the given size.
func firstPoolWithRoom(pools []*UploadPool, size uint64) *UploadPool {
	for _, p := range pools {
		offset := (p.cursor + chunkAlign - 1) &^ (chunkAlign - 1)
		if offset+size <= uploadPoolCapacity {
			return p
		}
	}
	return nil
}

// UploadChunk is a staged region ready to be copied out of.
type UploadChunk struct {
	Buffer vk.Buffer
	Offset uint64
	Size   uint64
}

// ReleasableResource is a pooled slot header tracking one GPU resource whose
// release is deferred until a submission retires. The destroy closure runs
// exactly once.
type ReleasableResource struct {
	destroy func()
}

func (r *ReleasableResource) release() {
	if r.destroy != nil {
		r.destroy()
		r.destroy = nil
	}
}

func (vr *VulkanRenderer) acquireReleasableSlot(destroy func()) *ReleasableResource {
	var slot *ReleasableResource
	if n := len(vr.freeReleasableSlots); n > 0 {
		slot = vr.freeReleasableSlots[n-1]
		vr.freeReleasableSlots = vr.freeReleasableSlots[:n-1]
	} else {
		slot = &ReleasableResource{}
	}
	slot.destroy = destroy
	return slot
}

func (vr *VulkanRenderer) returnReleasableSlot(slot *ReleasableResource) {
	slot.release()
	vr.freeReleasableSlots = append(vr.freeReleasableSlots, slot)
}

func (vr *VulkanRenderer) newUploadPool() (*UploadPool, error) {
	buffer, err := BufferCreate(
		vr.context,
		uploadPoolCapacity,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		return nil, err
	}
	core.LogDebug("Allocated an upload pool (%d MiB).", uploadPoolCapacity/(1024*1024))
	return &UploadPool{buffer: buffer}, nil
}

// getUploadChunk stages data for the given command list. Payloads that fit a
// pool go through the pool attached to the list (or a fresh one); oversize
// payloads get a dedicated staging buffer released when the submission
// retires.
func (vr *VulkanRenderer) getUploadChunk(cmd *CommandList, data []byte) (UploadChunk, error) {
	size := uint64(len(data))

	if size <= uploadPoolCapacity {
		pool := firstPoolWithRoom(cmd.uploadPools, size)
		if pool == nil {
			if n := len(vr.freeUploadPools); n > 0 {
				pool = vr.freeUploadPools[n-1]
				vr.freeUploadPools = vr.freeUploadPools[:n-1]
			} else {
				var err error
				pool, err = vr.newUploadPool()
				if err != nil {
					return UploadChunk{}, err
				}
			}
			cmd.uploadPools = append(cmd.uploadPools, pool)
		}

		offset, ok := pool.alloc(size)
		if !ok {
			// firstPoolWithRoom or a fresh pool guaranteed space.
			core.LogFatal("upload pool overflow staging %d bytes", size)
		}
		copy(pool.buffer.Mapped[offset:offset+size], data)

		return UploadChunk{Buffer: pool.buffer.Handle, Offset: offset, Size: size}, nil
	}

	// Dedicated staging buffer for oversize payloads.
	staging, err := BufferCreate(
		vr.context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		return UploadChunk{}, err
	}
	copy(staging.Mapped, data)

	context := vr.context
	cmd.releasables = append(cmd.releasables, vr.acquireReleasableSlot(func() {
		staging.Destroy(context)
	}))

	return UploadChunk{Buffer: staging.Handle, Offset: 0, Size: size}, nil
}

// writeBuffer stages data and records the copy into dst on the command list.
func (vr *VulkanRenderer) writeBuffer(cmd *CommandList, dst vk.Buffer, dstOffset uint64, data []byte) error {
	chunk, err := vr.getUploadChunk(cmd, data)
	if err != nil {
		return err
	}

	region := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(chunk.Offset),
		DstOffset: vk.DeviceSize(dstOffset),
		Size:      vk.DeviceSize(chunk.Size),
	}
	vk.CmdCopyBuffer(cmd.Buffer, chunk.Buffer, dst, 1, []vk.BufferCopy{region})
	return nil
}

// UploadContext wraps an open copy command list handed to mesh and material
// creation.
type UploadContext struct {
	cmd *CommandList
}

// OpenUploadContext opens a COPY command list for staging work.
func (vr *VulkanRenderer) OpenUploadContext() (*UploadContext, error) {
	cmd, err := vr.openCommandList(CommandListTypeCopy)
	if err != nil {
		return nil, err
	}
	return &UploadContext{cmd: cmd}, nil
}

// SubmitUploadContext submits the context's command list on the copy queue
// and returns the ticket callers poll before touching the uploaded
// resources on the direct queue.
func (vr *VulkanRenderer) SubmitUploadContext(ctx *UploadContext) (metadata.UploadTicket, error) {
	if err := vr.submitCommandList(ctx.cmd, vr.copyQueue, vk.NullSemaphore, vk.NullSemaphore); err != nil {
		return metadata.UploadTicket{}, err
	}
	ticket := metadata.UploadTicket{FenceVal: ctx.cmd.fenceVal}
	ctx.cmd = nil
	return ticket, nil
}

// UploadFinished reports whether the copy queue has retired the ticket.
func (vr *VulkanRenderer) UploadFinished(ticket metadata.UploadTicket) bool {
	return vr.copyQueue.Reached(ticket.FenceVal)
}

// FlushUpload blocks until the ticket's submission retires.
func (vr *VulkanRenderer) FlushUpload(ticket metadata.UploadTicket) {
	vr.copyQueue.Wait(ticket.FenceVal)
}
