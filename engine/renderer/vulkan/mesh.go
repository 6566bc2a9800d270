package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	vmath "github.com/spaghettifunk/vetro/engine/math"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

// MeshData is the renderer-side payload of a mesh handle: two device-local
// buffers, their bindless views, the index count the draw uses, and the
// local bounds the culling pass tests.
type MeshData struct {
	vbuffer     *VulkanBuffer
	ibuffer     *VulkanBuffer
	VBufferView Descriptor
	IBufferView Descriptor
	IndexCount  uint32
	AABB        vmath.Extents3D
}

const vertexStride = uint64(unsafe.Sizeof(vmath.Vertex3D{}))

func vertexBytes(vertices []vmath.Vertex3D) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), uint64(len(vertices))*vertexStride)
}

func indexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4)
}

// NewMesh stages the vertex and index payload through the upload context and
// returns a generational handle. The mesh must not be referenced on the
// direct queue until the context's ticket is finished.
func (vr *VulkanRenderer) NewMesh(ctx *UploadContext, config *metadata.MeshConfig) (metadata.Mesh, error) {
	handle, err := vr.meshPool.Alloc()
	if err != nil {
		core.LogError("mesh pool exhausted (%d slots)", vr.meshPool.Capacity())
		return metadata.Mesh{}, err
	}
	data, _ := vr.meshPool.Access(handle)

	vertexData := vertexBytes(config.Vertices)
	indexData := indexBytes(config.Indices)

	usage := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit | vk.BufferUsageTransferDstBit)
	memory := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	data.vbuffer, err = BufferCreate(vr.context, uint64(len(vertexData)), usage, memory, false)
	if err != nil {
		return metadata.Mesh{}, err
	}
	data.ibuffer, err = BufferCreate(vr.context, uint64(len(indexData)), usage, memory, false)
	if err != nil {
		return metadata.Mesh{}, err
	}

	if err := vr.writeBuffer(ctx.cmd, data.vbuffer.Handle, 0, vertexData); err != nil {
		return metadata.Mesh{}, err
	}
	if err := vr.writeBuffer(ctx.cmd, data.ibuffer.Handle, 0, indexData); err != nil {
		return metadata.Mesh{}, err
	}

	data.VBufferView = vr.bindlessHeap.Alloc()
	data.IBufferView = vr.bindlessHeap.Alloc()
	vr.bindless.WriteStorageView(vr.context, data.VBufferView, data.vbuffer.Handle, 0, data.vbuffer.Size)
	vr.bindless.WriteStorageView(vr.context, data.IBufferView, data.ibuffer.Handle, 0, data.ibuffer.Size)

	data.IndexCount = uint32(len(config.Indices))
	data.AABB = config.AABB

	return metadata.Mesh{Handle: handle}, nil
}

// FreeMesh releases a mesh immediately. The device flush makes it safe at
// any point of the frame loop; freeing meshes is a teardown path, not a
// steady-state one, so the coarseness is deliberate.
func (vr *VulkanRenderer) FreeMesh(mesh metadata.Mesh) error {
	data, err := vr.meshPool.Access(mesh.Handle)
	if err != nil {
		return err
	}

	vr.directQueue.Flush()
	vr.copyQueue.Flush()

	vr.bindlessHeap.Free(data.VBufferView)
	vr.bindlessHeap.Free(data.IBufferView)
	data.vbuffer.Destroy(vr.context)
	data.ibuffer.Destroy(vr.context)
	*data = MeshData{}

	return vr.meshPool.Free(mesh.Handle)
}

func (vr *VulkanRenderer) MeshAlive(mesh metadata.Mesh) bool {
	return vr.meshPool.Alive(mesh.Handle)
}

// meshData resolves a handle inside the frame pipeline, where an invalid
// handle is a caller bug rather than a recoverable condition.
func (vr *VulkanRenderer) meshData(mesh metadata.Mesh) *MeshData {
	data, err := vr.meshPool.Access(mesh.Handle)
	if err != nil {
		panic(err)
	}
	return data
}
