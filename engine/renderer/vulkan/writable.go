package vulkan

import (
	vk "github.com/goki/vulkan"
)

// WritableMesh is a host-visible vertex and index buffer pair used by the
// line overlay. The CPU writes directly into the mapped regions each frame;
// the vertex shader reads both through bindless views.
type WritableMesh struct {
	vbuffer     *VulkanBuffer
	ibuffer     *VulkanBuffer
	VBufferView Descriptor
	IBufferView Descriptor
}

const lineVertexStride = 16 // vec4 positions

func (vr *VulkanRenderer) newWritableMesh() (*WritableMesh, error) {
	usage := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	memory := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	vbuffer, err := BufferCreate(vr.context, uint64(maxLineVertices)*lineVertexStride, usage, memory, true)
	if err != nil {
		return nil, err
	}
	ibuffer, err := BufferCreate(vr.context, uint64(maxLineIndices)*4, usage, memory, true)
	if err != nil {
		return nil, err
	}

	mesh := &WritableMesh{
		vbuffer:     vbuffer,
		ibuffer:     ibuffer,
		VBufferView: vr.bindlessHeap.Alloc(),
		IBufferView: vr.bindlessHeap.Alloc(),
	}
	vr.bindless.WriteStorageView(vr.context, mesh.VBufferView, vbuffer.Handle, 0, vbuffer.Size)
	vr.bindless.WriteStorageView(vr.context, mesh.IBufferView, ibuffer.Handle, 0, ibuffer.Size)
	return mesh, nil
}

func (vr *VulkanRenderer) getWritableMesh() (*WritableMesh, error) {
	if n := len(vr.freeWritableMeshes); n > 0 {
		mesh := vr.freeWritableMeshes[n-1]
		vr.freeWritableMeshes = vr.freeWritableMeshes[:n-1]
		return mesh, nil
	}
	return vr.newWritableMesh()
}

func dropWritableMesh(cmd *CommandList, mesh *WritableMesh) {
	cmd.writableMeshes = append(cmd.writableMeshes, mesh)
}

func (m *WritableMesh) destroy(vr *VulkanRenderer) {
	vr.bindlessHeap.Free(m.VBufferView)
	vr.bindlessHeap.Free(m.IBufferView)
	m.vbuffer.Destroy(vr.context)
	m.ibuffer.Destroy(vr.context)
}

// WritableArgumentBuffer is the host-visible record buffer the CPU fills
// with culling inputs each frame. The compute pass reads it through its
// bindless view.
type WritableArgumentBuffer struct {
	buffer *VulkanBuffer
	View   Descriptor
}

func (vr *VulkanRenderer) newWritableArgumentBuffer() (*WritableArgumentBuffer, error) {
	buffer, err := BufferCreate(
		vr.context,
		uint64(maxIndirectCommands)*cullInputStride,
		vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		true)
	if err != nil {
		return nil, err
	}

	args := &WritableArgumentBuffer{
		buffer: buffer,
		View:   vr.bindlessHeap.Alloc(),
	}
	vr.bindless.WriteStorageView(vr.context, args.View, buffer.Handle, 0, buffer.Size)
	return args, nil
}

func (vr *VulkanRenderer) getWritableArgumentBuffer() (*WritableArgumentBuffer, error) {
	if n := len(vr.freeWritableArgBuffers); n > 0 {
		args := vr.freeWritableArgBuffers[n-1]
		vr.freeWritableArgBuffers = vr.freeWritableArgBuffers[:n-1]
		return args, nil
	}
	return vr.newWritableArgumentBuffer()
}

func dropWritableArgumentBuffer(cmd *CommandList, args *WritableArgumentBuffer) {
	cmd.writableArgBuffers = append(cmd.writableArgBuffers, args)
}

func (a *WritableArgumentBuffer) destroy(vr *VulkanRenderer) {
	vr.bindlessHeap.Free(a.View)
	a.buffer.Destroy(vr.context)
}
