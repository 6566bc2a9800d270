package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

// MaterialData is the renderer-side payload of a material handle: a sampled
// RGBA8 texture and its bindless view.
type MaterialData struct {
	texture     *VulkanImage
	TextureView Descriptor
	name        string
}

// NewMaterial creates a base-color texture from tightly packed RGBA bytes
// (row pitch = width * 4) and records its upload on the context's copy list.
func (vr *VulkanRenderer) NewMaterial(ctx *UploadContext, width, height uint32, pixels []byte) (metadata.Material, error) {
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		err := fmt.Errorf("material payload is %d bytes, want %d for %dx%d RGBA", len(pixels), width*height*4, width, height)
		core.LogError(err.Error())
		return metadata.Material{}, err
	}

	handle, err := vr.materialPool.Alloc()
	if err != nil {
		core.LogError("material pool exhausted (%d slots)", vr.materialPool.Capacity())
		return metadata.Material{}, err
	}
	data, _ := vr.materialPool.Access(handle)

	texture, err := ImageCreate(
		vr.context,
		width, height,
		vk.FormatR8g8b8a8Unorm,
		vk.ImageUsageFlags(vk.ImageUsageSampledBit|vk.ImageUsageTransferDstBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return metadata.Material{}, err
	}
	data.texture = texture
	data.name = core.DebugName("material")

	chunk, err := vr.getUploadChunk(ctx.cmd, pixels)
	if err != nil {
		return metadata.Material{}, err
	}

	imageBarrier(ctx.cmd.Buffer, texture.Handle,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
		0, vk.AccessFlags(vk.AccessTransferWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit))

	region := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(chunk.Offset),
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:   0,
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(ctx.cmd.Buffer, chunk.Buffer, texture.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	imageBarrier(ctx.cmd.Buffer, texture.Handle,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit))

	data.TextureView = vr.bindlessHeap.Alloc()
	vr.bindless.WriteTextureView(vr.context, data.TextureView, texture.View)

	core.LogObject(data.name).Debugf("material texture %dx%d staged (bindless slot %d)", width, height, data.TextureView.Index)
	return metadata.Material{Handle: handle}, nil
}

// FreeMaterial releases a material immediately, with the same coarse flush
// policy as FreeMesh.
func (vr *VulkanRenderer) FreeMaterial(material metadata.Material) error {
	data, err := vr.materialPool.Access(material.Handle)
	if err != nil {
		return err
	}

	vr.directQueue.Flush()
	vr.copyQueue.Flush()

	vr.bindlessHeap.Free(data.TextureView)
	data.texture.Destroy(vr.context)
	*data = MaterialData{}

	return vr.materialPool.Free(material.Handle)
}

func (vr *VulkanRenderer) MaterialAlive(material metadata.Material) bool {
	return vr.materialPool.Alive(material.Handle)
}

func (vr *VulkanRenderer) DefaultMaterial() metadata.Material {
	return vr.defaultMaterial
}

func (vr *VulkanRenderer) materialData(material metadata.Material) *MaterialData {
	data, err := vr.materialPool.Access(material.Handle)
	if err != nil {
		panic(err)
	}
	return data
}

// createDefaultMaterial uploads the built-in 1x1 gray texture handed to
// instances that omit a material.
func (vr *VulkanRenderer) createDefaultMaterial() error {
	ctx, err := vr.OpenUploadContext()
	if err != nil {
		return err
	}

	material, err := vr.NewMaterial(ctx, 1, 1, []byte{128, 128, 128, 255})
	if err != nil {
		return err
	}

	ticket, err := vr.SubmitUploadContext(ctx)
	if err != nil {
		return err
	}
	vr.FlushUpload(ticket)

	vr.defaultMaterial = material
	return nil
}
