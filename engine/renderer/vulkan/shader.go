package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vetro/engine/core"
)

// NewShaderModule wraps a compiled SPIR-V blob supplied by the host. The
// renderer never compiles shader source itself.
func NewShaderModule(context *VulkanContext, blob []byte) (vk.ShaderModule, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		core.LogError("shader blob is empty or not a SPIR-V word multiple (%d bytes)", len(blob))
		return vk.NullShaderModule, core.ErrShaderBlobMissing
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(blob)),
		PCode:    sliceUint32(blob),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		err := fmt.Errorf("failed to create shader module with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}
	return module, nil
}

func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
	return words
}

func shaderStage(module vk.ShaderModule, stage vk.ShaderStageFlagBits) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  VulkanSafeString("main"),
	}
}
