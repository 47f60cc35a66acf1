package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/assets"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// createShaderModule reads a compiled SPIR-V binary for the given shader
// stage from the asset tree (assets/shaders/<name>.<type_str>.spv) and turns
// it into a usable Vulkan shader module plus its pipeline stage info.
func createShaderModule(context *VulkanContext, am *assets.AssetManager, name string, typeStr string, stageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	fileName := fmt.Sprintf("shaders/%s.%s.spv", name, typeStr)

	binaryResource, err := am.LoadAsset(fileName, metadata.ResourceTypeBinary, nil)
	if err != nil {
		core.LogError("Unable to read shader module: %s.", fileName)
		return nil, err
	}

	code, ok := binaryResource.Data.([]uint32)
	if !ok {
		err := fmt.Errorf("shader module %s did not decode to SPIR-V words", fileName)
		core.LogError(err.Error())
		return nil, err
	}

	stage := &VulkanShaderStage{
		CreateInfo: vk.ShaderModuleCreateInfo{
			SType:    vk.StructureTypeShaderModuleCreateInfo,
			CodeSize: uint(len(code) * 4),
			PCode:    code,
		},
	}

	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &stage.CreateInfo, context.Allocator, &stage.Handle); res != vk.Success {
		err := fmt.Errorf("failed to create shader module for %s", fileName)
		core.LogError(err.Error())
		return nil, err
	}

	am.UnloadAsset(binaryResource)

	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stageFlag,
		Module: stage.Handle,
		PName:  "main\x00",
	}

	return stage, nil
}

func (s *VulkanShaderStage) destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}
