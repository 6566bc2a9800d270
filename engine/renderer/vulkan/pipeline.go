package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
	"github.com/spaghettifunk/vetro/engine/renderer/metadata"
)

// createPipelineLayout builds the one layout every pipeline shares: the
// bindless set plus a block of sixteen 32-bit root values.
func (vr *VulkanRenderer) createPipelineLayout() error {
	pushRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit | vk.ShaderStageComputeBit),
		Offset:     0,
		Size:       pushConstantBytes,
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{vr.bindless.Layout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushRange},
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(vr.context.Device.LogicalDevice, &layoutInfo, vr.context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("vkCreatePipelineLayout failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	vr.pipelineLayout = layout
	return nil
}

// createGraphicsPipeline builds one of the two raster pipelines. Both pull
// vertices out of bindless structured buffers, so neither declares vertex
// input state. Depth runs reverse-Z: clear 0.0, compare GREATER.
func (vr *VulkanRenderer) createGraphicsPipeline(vsBlob, fsBlob []byte, topology vk.PrimitiveTopology) (vk.Pipeline, error) {
	vsModule, err := NewShaderModule(vr.context, vsBlob)
	if err != nil {
		return vk.NullPipeline, err
	}
	defer vk.DestroyShaderModule(vr.context.Device.LogicalDevice, vsModule, vr.context.Allocator)

	fsModule, err := NewShaderModule(vr.context, fsBlob)
	if err != nil {
		return vk.NullPipeline, err
	}
	defer vk.DestroyShaderModule(vr.context.Device.LogicalDevice, fsModule, vr.context.Allocator)

	stages := []vk.PipelineShaderStageCreateInfo{
		shaderStage(vsModule, vk.ShaderStageVertexBit),
		shaderStage(fsModule, vk.ShaderStageFragmentBit),
	}

	// No bound vertex buffers; shaders index the bindless views instead.
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: topology,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpGreater,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	// Viewport and scissor follow the swapchain dimensions each frame.
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              vr.pipelineLayout,
		RenderPass:          vr.renderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		vr.context.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo},
		vr.context.Allocator,
		pipelines); res != vk.Success {
		err := fmt.Errorf("vkCreateGraphicsPipelines failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullPipeline, err
	}

	core.LogDebug("Graphics pipeline created!")
	return pipelines[0], nil
}

// createCullPipeline builds the frustum-culling compute pipeline.
func (vr *VulkanRenderer) createCullPipeline(csBlob []byte) (vk.Pipeline, error) {
	csModule, err := NewShaderModule(vr.context, csBlob)
	if err != nil {
		return vk.NullPipeline, err
	}
	defer vk.DestroyShaderModule(vr.context.Device.LogicalDevice, csModule, vr.context.Allocator)

	pipelineInfo := vk.ComputePipelineCreateInfo{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  shaderStage(csModule, vk.ShaderStageComputeBit),
		Layout: vr.pipelineLayout,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateComputePipelines(
		vr.context.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.ComputePipelineCreateInfo{pipelineInfo},
		vr.context.Allocator,
		pipelines); res != vk.Success {
		err := fmt.Errorf("vkCreateComputePipelines failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullPipeline, err
	}

	core.LogDebug("Compute pipeline created!")
	return pipelines[0], nil
}

func (vr *VulkanRenderer) createPipelines(blobs metadata.ShaderBlobs) error {
	lighting, err := vr.createGraphicsPipeline(blobs.LightingVertex, blobs.LightingFragment, vk.PrimitiveTopologyTriangleList)
	if err != nil {
		return err
	}
	vr.lightingPipeline = lighting

	line, err := vr.createGraphicsPipeline(blobs.LineVertex, blobs.LineFragment, vk.PrimitiveTopologyLineList)
	if err != nil {
		return err
	}
	vr.linePipeline = line

	cull, err := vr.createCullPipeline(blobs.CullingCompute)
	if err != nil {
		return err
	}
	vr.cullPipeline = cull

	return nil
}
