package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	vmath "github.com/spaghettifunk/vetro/engine/math"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

var pushStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit | vk.ShaderStageComputeBit)

func pushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, slot uint32, values ...uint32) {
	vk.CmdPushConstants(buffer, layout, pushStages, slot*4, uint32(len(values)*4), unsafe.Pointer(&values[0]))
}

func mat4Bytes(m *vmath.Mat4) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Data[0])), 64)
}

func vec4Bytes(v []vmath.Vec4, count uint32) []byte {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), uint64(count)*16)
}

func bufferBarrier(
	buffer vk.CommandBuffer,
	target vk.Buffer,
	srcAccess, dstAccess vk.AccessFlags,
	srcStage, dstStage vk.PipelineStageFlags) {

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              target,
		Offset:              0,
		Size:                vk.DeviceSize(vk.WholeSize),
	}
	vk.CmdPipelineBarrier(buffer, srcStage, dstStage, 0, 0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

// RenderFrame produces one frame: clear, build indirect records, cull on
// the GPU, draw the survivors indirectly, draw the optional line overlay,
// present.
func (vr *VulkanRenderer) RenderFrame(frame *metadata.FrameData) error {
	imageAvailable := vr.imageAvailableSemaphores[vr.currentFrame]
	queueComplete := vr.queueCompleteSemaphores[vr.currentFrame]

	// 1. Resolve the back buffer this frame targets and make sure the CPU
	// is not about to overwrite work the GPU still reads.
	imageIndex, ok := vr.swapchain.SwapchainAcquireNextImageIndex(vr.context, imageAvailable)
	if !ok {
		// Out of date; the resize path rebuilds the swapchain and the
		// caller simply skips this frame.
		width, height := vr.platform.FramebufferSize()
		return vr.HandleResize(width, height)
	}
	vr.directQueue.Wait(vr.swapchainFences[imageIndex])

	// 2. Open the frame's direct list.
	cmd, err := vr.openCommandList(CommandListTypeDirect)
	if err != nil {
		return err
	}

	width := vr.context.FramebufferWidth
	height := vr.context.FramebufferHeight

	// 3. Camera view-projection into a constant buffer.
	aspect := float32(width) / float32(height)
	view := frame.Camera.Transform.Inverse()
	projection := vmath.NewMat4PerspectiveReverseZ(frame.Camera.FOV/aspect, aspect, frame.Camera.NearPlane, frame.Camera.FarPlane)
	viewProjection := view.Mul(projection)

	cameraCB, err := vr.getConstantBuffer(mat4Bytes(&viewProjection))
	if err != nil {
		return err
	}
	dropConstantBuffer(cmd, cameraCB)

	queueLen := uint32(len(frame.Queue))
	if queueLen > maxIndirectCommands {
		core.LogWarn("frame queue of %d instances exceeds the indirect capacity %d; truncating", queueLen, maxIndirectCommands)
		queueLen = maxIndirectCommands
	}

	if queueLen > 0 {
		// 4. Build one culling input per instance into scratch memory,
		// then publish the array through a writable argument buffer.
		lease, err := vr.scratch.GetScratch()
		if err != nil {
			return err
		}

		records, err := lease.Arena.Push(uint64(queueLen) * cullInputStride)
		if err != nil {
			lease.Release()
			return err
		}

		for i := uint32(0); i < queueLen; i++ {
			instance := &frame.Queue[i]
			mesh := vr.meshData(instance.Mesh)

			material := instance.Material
			if material.Handle == 0 {
				material = vr.defaultMaterial
			}
			materialData := vr.materialData(material)

			transform := instance.Transform
			transformCB, err := vr.getConstantBuffer(mat4Bytes(&transform))
			if err != nil {
				lease.Release()
				return err
			}
			dropConstantBuffer(cmd, transformCB)

			worldAABB := vmath.TransformAABB(mesh.AABB, instance.Transform)

			input := metadata.CullInput{
				Command: metadata.IndirectCommand{
					VBufferIndex:   mesh.VBufferView.Index,
					IBufferIndex:   mesh.IBufferView.Index,
					TransformIndex: transformCB.View.Index,
					TextureIndex:   materialData.TextureView.Index,
					VertexCount:    mesh.IndexCount,
					InstanceCount:  1,
					StartVertex:    0,
					StartInstance:  0,
				},
				BoundsMin: worldAABB.Min,
				BoundsMax: worldAABB.Max,
			}
			input.Encode(records[uint64(i)*cullInputStride:])
		}

		inputArgs, err := vr.getWritableArgumentBuffer()
		if err != nil {
			lease.Release()
			return err
		}
		dropWritableArgumentBuffer(cmd, inputArgs)
		copy(inputArgs.buffer.Mapped, records)
		lease.Release()

		// 5. Clear the surviving-record count.
		bufferBarrier(cmd.Buffer, vr.outCountBuffer.Handle,
			vk.AccessFlags(vk.AccessIndirectCommandReadBit), vk.AccessFlags(vk.AccessTransferWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit))
		if err := vr.writeBuffer(cmd, vr.outCountBuffer.Handle, 0, []byte{0, 0, 0, 0}); err != nil {
			return err
		}
		bufferBarrier(cmd.Buffer, vr.outCountBuffer.Handle,
			vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessShaderWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit))

		// 6. Frustum-cull on the GPU; survivors are appended to the output
		// argument buffer behind an atomic counter.
		vk.CmdBindPipeline(cmd.Buffer, vk.PipelineBindPointCompute, vr.cullPipeline)
		pushConstants(cmd.Buffer, vr.pipelineLayout, pushSlotCullInputSRV,
			inputArgs.View.Index,
			queueLen,
			vr.outArgsView.Index,
			vr.outCountView.Index,
			cameraCB.View.Index)

		groups := (queueLen + cullGroupSize - 1) / cullGroupSize
		vk.CmdDispatch(cmd.Buffer, groups, 1, 1)

		// 7. Make the appended records and the counter visible to the
		// indirect draw engine and the vertex shader.
		bufferBarrier(cmd.Buffer, vr.outArgsBuffer.Handle,
			vk.AccessFlags(vk.AccessShaderWriteBit), vk.AccessFlags(vk.AccessIndirectCommandReadBit|vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
			vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit|vk.PipelineStageVertexShaderBit))
		bufferBarrier(cmd.Buffer, vr.outCountBuffer.Handle,
			vk.AccessFlags(vk.AccessShaderWriteBit), vk.AccessFlags(vk.AccessIndirectCommandReadBit),
			vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
			vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit))
	}

	// 2 (continued). The render pass clears color to (0.1, 0.1, 0.1, 1)
	// and depth to the reverse-Z far value, then covers the back buffer's
	// transition to present on completion.
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clearColor[:])
	clearValues[1].SetDepthStencil(clearDepth, 0)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.renderPass,
		Framebuffer: vr.swapchain.Framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: width, Height: height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cmd.Buffer, &beginInfo, vk.SubpassContentsInline)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: width, Height: height},
	}
	vk.CmdSetViewport(cmd.Buffer, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cmd.Buffer, 0, 1, []vk.Rect2D{scissor})

	if queueLen > 0 {
		// 8. Indirect draw over the surviving records. The draw arguments
		// sit at the tail of each 32-byte record; the leading indices are
		// fetched by the vertex shader through the draw's first-instance
		// value.
		vk.CmdBindPipeline(cmd.Buffer, vk.PipelineBindPointGraphics, vr.lightingPipeline)
		pushConstants(cmd.Buffer, vr.pipelineLayout, pushSlotCameraCBV, cameraCB.View.Index, vr.outArgsView.Index)

		vk.CmdDrawIndirectCount(
			cmd.Buffer,
			vr.outArgsBuffer.Handle, vk.DeviceSize(indirectDrawArgsShift),
			vr.outCountBuffer.Handle, 0,
			queueLen,
			indirectCommandStride)
	}

	// 9. Optional line overlay out of a writable mesh.
	if frame.NumLineIndices > 0 {
		lineMesh, err := vr.getWritableMesh()
		if err != nil {
			return err
		}
		dropWritableMesh(cmd, lineMesh)

		numVertices := vmath.Clamp(frame.NumLineVertices, 0, maxLineVertices)
		numIndices := vmath.Clamp(frame.NumLineIndices, 0, maxLineIndices)
		copy(lineMesh.vbuffer.Mapped, vec4Bytes(frame.LineVertices, numVertices))
		copy(lineMesh.ibuffer.Mapped, indexBytes(frame.LineIndices[:numIndices]))

		vk.CmdBindPipeline(cmd.Buffer, vk.PipelineBindPointGraphics, vr.linePipeline)
		pushConstants(cmd.Buffer, vr.pipelineLayout, pushSlotCameraCBV,
			cameraCB.View.Index,
			lineMesh.VBufferView.Index,
			lineMesh.IBufferView.Index)

		vk.CmdDraw(cmd.Buffer, numIndices, 1, 0, 0)
	}

	// 10. Back to present, submit, present, and fence the image.
	vk.CmdEndRenderPass(cmd.Buffer)

	if err := vr.submitCommandList(cmd, vr.directQueue, imageAvailable, queueComplete); err != nil {
		return err
	}

	vr.swapchain.SwapchainPresent(vr.context, vr.directQueue.Handle, queueComplete, imageIndex)
	vr.swapchainFences[imageIndex] = vr.directQueue.Signal()

	vr.currentFrame = (vr.currentFrame + 1) % framesInFlight
	vr.FrameNumber++
	return nil
}
