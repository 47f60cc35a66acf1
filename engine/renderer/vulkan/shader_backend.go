package vulkan

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/kilnengine/kiln/engine/core"
	kmath "github.com/kilnengine/kiln/engine/math"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

const vulkanShaderMaxInstanceCount uint32 = 1024

func shaderStageTypeStr(stage metadata.ShaderStage) string {
	switch stage {
	case metadata.ShaderStageVertex:
		return "vert"
	case metadata.ShaderStageFragment:
		return "frag"
	case metadata.ShaderStageGeometry:
		return "geom"
	case metadata.ShaderStageCompute:
		return "comp"
	}
	return "vert"
}

func shaderStageFlag(stage metadata.ShaderStage) vk.ShaderStageFlagBits {
	switch stage {
	case metadata.ShaderStageVertex:
		return vk.ShaderStageVertexBit
	case metadata.ShaderStageFragment:
		return vk.ShaderStageFragmentBit
	case metadata.ShaderStageGeometry:
		return vk.ShaderStageGeometryBit
	case metadata.ShaderStageCompute:
		return vk.ShaderStageComputeBit
	}
	return vk.ShaderStageVertexBit
}

func attribTypeToVkFormat(t metadata.ShaderAttributeType) vk.Format {
	switch t {
	case metadata.ShaderAttribTypeFloat32:
		return vk.FormatR32Sfloat
	case metadata.ShaderAttribTypeFloat32_2:
		return vk.FormatR32g32Sfloat
	case metadata.ShaderAttribTypeFloat32_3:
		return vk.FormatR32g32b32Sfloat
	case metadata.ShaderAttribTypeFloat32_4:
		return vk.FormatR32g32b32a32Sfloat
	case metadata.ShaderAttribTypeInt8:
		return vk.FormatR8Sint
	case metadata.ShaderAttribTypeUint8:
		return vk.FormatR8Uint
	case metadata.ShaderAttribTypeInt16:
		return vk.FormatR16Sint
	case metadata.ShaderAttribTypeUint16:
		return vk.FormatR16Uint
	case metadata.ShaderAttribTypeInt32:
		return vk.FormatR32Sint
	case metadata.ShaderAttribTypeUint32:
		return vk.FormatR32Uint
	}
	return vk.FormatR32g32b32Sfloat
}

// ShaderCreate allocates the descriptor pool/layouts/uniform buffer for a
// shader and compiles its SPIR-V stage modules. It does not yet build the
// pipeline; that happens in ShaderInitialize once attributes/uniforms have
// been fully registered by the owning shader system.
func (vr *VulkanRenderer) ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig, pass *metadata.RenderPass, stageCount uint8, stageFilenames []string, stages []metadata.ShaderStage) error {
	internalPass, ok := pass.InternalData.(*VulkanRenderPass)
	if !ok || internalPass == nil {
		return fmt.Errorf("shader's renderpass has no internal data")
	}

	internal := &VulkanShaderConfig{
		MaxDescriptorSetCount: uint16(vulkanShaderMaxInstanceCount),
	}

	var globalSamplerCount, instanceSamplerCount uint32
	var globalUboSize, instanceUboSize uint64
	for _, u := range config.Uniforms {
		if u.ShaderUniformType == metadata.ShaderUniformTypeSampler {
			if u.Scope == metadata.ShaderScopeGlobal {
				globalSamplerCount++
			} else if u.Scope == metadata.ShaderScopeInstance {
				instanceSamplerCount++
			}
			continue
		}
		if u.Scope == metadata.ShaderScopeGlobal {
			globalUboSize += uint64(u.Size)
		} else if u.Scope == metadata.ShaderScopeInstance {
			instanceUboSize += uint64(u.Size)
		}
	}

	internal.PoolSizes = []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: uint32(vulkanShaderMaxInstanceCount)},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: uint32(vulkanShaderMaxInstanceCount) * VULKAN_SHADER_MAX_INSTANCE_TEXTURES},
	}

	globalSet := buildDescriptorSetConfig(true, globalSamplerCount)
	instanceSet := buildDescriptorSetConfig(false, instanceSamplerCount)
	internal.DescriptorSets = []*VulkanDescriptorSetConfig{globalSet, instanceSet}

	// Vertex attribute descriptions, laid out in declaration order.
	var offset uint32
	internal.Attributes = make([]vk.VertexInputAttributeDescription, len(config.Attributes))
	for i, a := range config.Attributes {
		internal.Attributes[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   attribTypeToVkFormat(a.ShaderAttributeType),
			Offset:   offset,
		}
		offset += uint32(a.Size)
	}

	internal.CullMode = config.CullMode

	// Compile stages.
	internal.Stages = make([]VulkanShaderStageConfig, stageCount)
	stageModules := make([]*VulkanShaderStage, stageCount)
	for i := 0; i < int(stageCount); i++ {
		typeStr := shaderStageTypeStr(stages[i])
		flag := shaderStageFlag(stages[i])
		internal.Stages[i] = VulkanShaderStageConfig{Stage: flag, FileName: stageFilenames[i]}

		module, err := createShaderModule(vr.context, vr.assetManager, stageFilenames[i], typeStr, flag)
		if err != nil {
			core.LogError("unable to create shader module for %s: %s", stageFilenames[i], err.Error())
			return err
		}
		stageModules[i] = module
	}

	// Descriptor pool.
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(internal.PoolSizes)),
		PPoolSizes:    internal.PoolSizes,
		MaxSets:       uint32(internal.MaxDescriptorSetCount),
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
	}
	var descriptorPool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(vr.context.Device.LogicalDevice, &poolInfo, vr.context.Allocator, &descriptorPool); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool for shader %s", shader.Name)
		core.LogError(err.Error())
		return err
	}

	// Descriptor set layouts, one per scope (0=global, 1=instance).
	layouts := make([]vk.DescriptorSetLayout, 2)
	for i, setCfg := range internal.DescriptorSets {
		bindings := setCfg.Bindings[:setCfg.BindingCount]
		layoutInfo := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(setCfg.BindingCount),
			PBindings:    bindings,
		}
		if res := vk.CreateDescriptorSetLayout(vr.context.Device.LogicalDevice, &layoutInfo, vr.context.Allocator, &layouts[i]); res != vk.Success {
			err := fmt.Errorf("failed to create descriptor set layout for shader %s", shader.Name)
			core.LogError(err.Error())
			return err
		}
	}

	// UBO alignment and sizing.
	var properties vk.PhysicalDeviceProperties
	properties = vr.context.Device.Properties
	properties.Deref()
	properties.Limits.Deref()
	shader.RequiredUboAlignment = uint64(properties.Limits.MinUniformBufferOffsetAlignment)
	shader.GlobalUboSize = globalUboSize
	shader.UboSize = instanceUboSize
	shader.GlobalUboStride = metadata.GetAligned(globalUboSize, shader.RequiredUboAlignment)
	shader.UboStride = metadata.GetAligned(instanceUboSize, shader.RequiredUboAlignment)
	shader.GlobalUboOffset = 0

	totalBufferSize := shader.GlobalUboStride + (shader.UboStride * uint64(vulkanShaderMaxInstanceCount))
	if totalBufferSize == 0 {
		totalBufferSize = shader.RequiredUboAlignment
	}
	uniformBuffer, err := vr.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_UNIFORM, totalBufferSize)
	if err != nil {
		core.LogError("failed to create uniform buffer for shader %s", shader.Name)
		return err
	}
	if err := vr.RenderBufferBind(uniformBuffer, 0); err != nil {
		return err
	}

	internalShader := &VulkanShader{
		ID:                   shader.ID,
		Config:               internal,
		Renderpass:           internalPass,
		Stages:               stageModules,
		DescriptorPool:       descriptorPool,
		DescriptorSetLayouts: layouts,
		GlobalDescriptorSets: make([]vk.DescriptorSet, vr.context.Swapchain.ImageCount),
		UniformBuffer:        uniformBuffer,
	}

	shader.UniformLookup = make(map[string]uint16)

	// Allocate global descriptor sets, one per swapchain image.
	globalLayouts := make([]vk.DescriptorSetLayout, vr.context.Swapchain.ImageCount)
	for i := range globalLayouts {
		globalLayouts[i] = layouts[0]
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     descriptorPool,
		DescriptorSetCount: vr.context.Swapchain.ImageCount,
		PSetLayouts:        globalLayouts,
	}
	if res := vk.AllocateDescriptorSets(vr.context.Device.LogicalDevice, &allocInfo, internalShader.GlobalDescriptorSets); res != vk.Success {
		err := fmt.Errorf("failed to allocate global descriptor sets for shader %s", shader.Name)
		core.LogError(err.Error())
		return err
	}

	mapped, err := vr.RenderBufferMapMemory(uniformBuffer, 0, totalBufferSize)
	if err != nil {
		return err
	}
	shader.MappedUniformBufferBlock = mapped

	shader.InternalData = internalShader
	return nil
}

func buildDescriptorSetConfig(isGlobal bool, samplerCount uint32) *VulkanDescriptorSetConfig {
	cfg := &VulkanDescriptorSetConfig{}
	cfg.Bindings[0] = vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	cfg.BindingCount = 1
	if samplerCount > 0 {
		cfg.Bindings[1] = vk.DescriptorSetLayoutBinding{
			Binding:         1,
			DescriptorCount: samplerCount,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
		cfg.SamplerBindingIndex = 1
		cfg.BindingCount = 2
	}
	return cfg
}

// ShaderInitialize builds the graphics pipeline once all attributes and
// uniforms have been registered against the shader.
func (vr *VulkanRenderer) ShaderInitialize(shader *metadata.Shader) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}

	stageInfos := make([]vk.PipelineShaderStageCreateInfo, len(internal.Stages))
	for i, s := range internal.Stages {
		stageInfos[i] = s.ShaderStageCreateInfo
	}

	viewport := vk.Viewport{
		X: 0, Y: float32(vr.context.FramebufferHeight),
		Width: float32(vr.context.FramebufferWidth), Height: -float32(vr.context.FramebufferHeight),
		MinDepth: 0.0, MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: vr.context.FramebufferWidth, Height: vr.context.FramebufferHeight},
	}

	depthTest := shader.Flags&metadata.SHADER_FLAG_DEPTH_TEST != 0

	pushConstantRanges := shader.PushConstantRanges[:shader.PushConstantRangeCount]

	pipeline, err := NewGraphicsPipeline(
		vr.context,
		internal.Renderpass,
		uint32(shader.AttributeStride),
		uint32(len(internal.Config.Attributes)),
		internal.Config.Attributes,
		uint32(len(internal.DescriptorSetLayouts)),
		internal.DescriptorSetLayouts,
		uint32(len(stageInfos)),
		stageInfos,
		viewport,
		scissor,
		internal.Config.CullMode,
		false,
		depthTest,
		uint32(shader.PushConstantRangeCount),
		pushConstantRanges,
	)
	if err != nil {
		core.LogError("failed to create pipeline for shader %s: %s", shader.Name, err.Error())
		vr.ShaderDestroy(shader)
		return err
	}
	internal.Pipeline = pipeline

	shader.State = metadata.SHADER_STATE_INITIALIZED
	return nil
}

func (vr *VulkanRenderer) ShaderDestroy(shader *metadata.Shader) {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return
	}

	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	if internal.Pipeline != nil {
		internal.Pipeline.Destroy(vr.context)
	}
	if internal.DescriptorPool != nil {
		vk.DestroyDescriptorPool(vr.context.Device.LogicalDevice, internal.DescriptorPool, vr.context.Allocator)
	}
	for _, layout := range internal.DescriptorSetLayouts {
		if layout != nil {
			vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, layout, vr.context.Allocator)
		}
	}
	if internal.UniformBuffer != nil {
		vr.RenderBufferUnmapMemory(internal.UniformBuffer, 0, internal.UniformBuffer.TotalSize)
		vr.RenderBufferDestroy(internal.UniformBuffer)
	}
	for _, s := range internal.Stages {
		s.destroy(vr.context)
	}

	shader.InternalData = nil
	shader.State = metadata.SHADER_STATE_NOT_CREATED
}

func (vr *VulkanRenderer) ShaderUse(shader *metadata.Shader) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}
	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	internal.Pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	return nil
}

func (vr *VulkanRenderer) ShaderBindGlobals(shader *metadata.Shader) error {
	shader.BoundUboOffset = uint32(shader.GlobalUboOffset)
	return nil
}

func (vr *VulkanRenderer) ShaderBindInstance(shader *metadata.Shader, instanceID uint32) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}
	if instanceID >= uint32(len(internal.InstanceStates)) {
		return fmt.Errorf("instance id %d out of range", instanceID)
	}
	shader.BoundInstanceID = instanceID
	shader.BoundUboOffset = uint32(internal.InstanceStates[instanceID].Offset)
	return nil
}

func (vr *VulkanRenderer) ShaderApplyGlobals(shader *metadata.Shader) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}

	imageIndex := vr.context.ImageIndex
	descriptorSet := internal.GlobalDescriptorSets[imageIndex]

	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: internal.UniformBuffer.InternalData.(*VulkanBuffer).Handle,
		Offset: vk.DeviceSize(shader.GlobalUboOffset),
		Range:  vk.DeviceSize(shader.GlobalUboSize),
	}
	writes := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          descriptorSet,
		DstBinding:      0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}}

	if len(shader.GlobalTextureMaps) > 0 && internal.Config.DescriptorSets[0].SamplerBindingIndex > 0 {
		imageInfos := make([]vk.DescriptorImageInfo, 0, len(shader.GlobalTextureMaps))
		for _, tm := range shader.GlobalTextureMaps {
			if tm == nil || tm.Texture == nil {
				continue
			}
			image, ok := tm.Texture.InternalData.(*VulkanImage)
			if !ok {
				continue
			}
			sampler, _ := tm.InternalData.(vk.Sampler)
			imageInfos = append(imageInfos, vk.DescriptorImageInfo{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				ImageView:   image.View,
				Sampler:     sampler,
			})
		}
		if len(imageInfos) > 0 {
			writes = append(writes, vk.WriteDescriptorSet{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          descriptorSet,
				DstBinding:      1,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: uint32(len(imageInfos)),
				PImageInfo:      imageInfos,
			})
		}
	}

	vk.UpdateDescriptorSets(vr.context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)

	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	vk.CmdBindDescriptorSets(commandBuffer.Handle, vk.PipelineBindPointGraphics, internal.Pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{descriptorSet}, 0, nil)
	return nil
}

func (vr *VulkanRenderer) ShaderApplyInstance(shader *metadata.Shader, needsUpdate bool) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}
	if shader.BoundInstanceID == metadata.InvalidID || int(shader.BoundInstanceID) >= len(internal.InstanceStates) {
		return fmt.Errorf("no instance bound")
	}
	instanceState := internal.InstanceStates[shader.BoundInstanceID]
	imageIndex := vr.context.ImageIndex
	descriptorSet := instanceState.DescriptorSetState.DescriptorSets[imageIndex]

	if needsUpdate {
		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: internal.UniformBuffer.InternalData.(*VulkanBuffer).Handle,
			Offset: vk.DeviceSize(instanceState.Offset),
			Range:  vk.DeviceSize(shader.UboSize),
		}
		writes := []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSet,
			DstBinding:      0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		}}

		if len(instanceState.InstanceTextureMaps) > 0 {
			imageInfos := make([]vk.DescriptorImageInfo, 0, len(instanceState.InstanceTextureMaps))
			for _, tm := range instanceState.InstanceTextureMaps {
				if tm == nil || tm.Texture == nil {
					continue
				}
				image, ok := tm.Texture.InternalData.(*VulkanImage)
				if !ok {
					continue
				}
				sampler, _ := tm.InternalData.(vk.Sampler)
				imageInfos = append(imageInfos, vk.DescriptorImageInfo{
					ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
					ImageView:   image.View,
					Sampler:     sampler,
				})
			}
			if len(imageInfos) > 0 {
				writes = append(writes, vk.WriteDescriptorSet{
					SType:           vk.StructureTypeWriteDescriptorSet,
					DstSet:          descriptorSet,
					DstBinding:      1,
					DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
					DescriptorCount: uint32(len(imageInfos)),
					PImageInfo:      imageInfos,
				})
			}
		}
		vk.UpdateDescriptorSets(vr.context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	}

	commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	vk.CmdBindDescriptorSets(commandBuffer.Handle, vk.PipelineBindPointGraphics, internal.Pipeline.PipelineLayout, 1, 1, []vk.DescriptorSet{descriptorSet}, 0, nil)
	return nil
}

func (vr *VulkanRenderer) ShaderAcquireInstanceResources(shader *metadata.Shader, maps []*metadata.TextureMap) (uint32, error) {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return metadata.InvalidID, fmt.Errorf("shader has no internal data")
	}

	instanceState := &VulkanShaderInstanceState{
		ID:                  uint32(len(internal.InstanceStates)),
		InstanceTextureMaps: maps,
	}
	instanceState.Offset = shader.GlobalUboStride + (shader.UboStride * uint64(instanceState.ID))

	layouts := make([]vk.DescriptorSetLayout, len(instanceState.DescriptorSetState.DescriptorSets))
	for i := range layouts {
		layouts[i] = internal.DescriptorSetLayouts[1]
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     internal.DescriptorPool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}
	if res := vk.AllocateDescriptorSets(vr.context.Device.LogicalDevice, &allocInfo, instanceState.DescriptorSetState.DescriptorSets[:]); res != vk.Success {
		err := fmt.Errorf("failed to allocate instance descriptor sets for shader %s", shader.Name)
		core.LogError(err.Error())
		return metadata.InvalidID, err
	}

	internal.InstanceStates = append(internal.InstanceStates, instanceState)
	internal.InstanceCount++
	return instanceState.ID, nil
}

func (vr *VulkanRenderer) ShaderReleaseInstanceResources(shader *metadata.Shader, instanceID uint32) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}
	if instanceID >= uint32(len(internal.InstanceStates)) {
		return fmt.Errorf("instance id %d out of range", instanceID)
	}

	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	instanceState := internal.InstanceStates[instanceID]
	sets := instanceState.DescriptorSetState.DescriptorSets[:]
	vk.FreeDescriptorSets(vr.context.Device.LogicalDevice, internal.DescriptorPool, uint32(len(sets)), sets)
	internal.InstanceStates[instanceID] = nil
	return nil
}

// SetUniform writes a uniform's value into the shader's mapped uniform
// buffer block (global/instance scope) or records it as a push constant
// (local scope). Sampler uniforms instead rebind the referenced texture map.
func (vr *VulkanRenderer) SetUniform(shader *metadata.Shader, uniform metadata.ShaderUniform, value interface{}) error {
	internal, ok := shader.InternalData.(*VulkanShader)
	if !ok || internal == nil {
		return fmt.Errorf("shader has no internal data")
	}

	if uniform.ShaderUniformType == metadata.ShaderUniformTypeSampler {
		texture, ok := value.(*metadata.Texture)
		if !ok {
			return fmt.Errorf("sampler uniform requires a *metadata.Texture value")
		}
		if uniform.Scope == metadata.ShaderScopeGlobal {
			if int(uniform.Location) < len(shader.GlobalTextureMaps) && shader.GlobalTextureMaps[uniform.Location] != nil {
				shader.GlobalTextureMaps[uniform.Location].Texture = texture
			}
		} else {
			instanceState := internal.InstanceStates[shader.BoundInstanceID]
			if int(uniform.Location) < len(instanceState.InstanceTextureMaps) && instanceState.InstanceTextureMaps[uniform.Location] != nil {
				instanceState.InstanceTextureMaps[uniform.Location].Texture = texture
			}
		}
		return nil
	}

	data := encodeUniformValue(value)

	if uniform.Scope == metadata.ShaderScopeLocal {
		commandBuffer := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
		vk.CmdPushConstants(commandBuffer.Handle, internal.Pipeline.PipelineLayout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			uint32(uniform.Offset), uint32(len(data)), unsafe.Pointer(&data[0]))
		return nil
	}

	if shader.MappedUniformBufferBlock == nil {
		return fmt.Errorf("shader uniform buffer is not mapped")
	}
	base := shader.MappedUniformBufferBlock.(unsafe.Pointer)
	addr := uintptr(base) + uintptr(shader.BoundUboOffset) + uintptr(uniform.Offset)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))
	copy(dst, data)
	return nil
}

func encodeUniformValue(value interface{}) []byte {
	switch v := value.(type) {
	case float32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		return buf
	case int32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v))
		return buf
	case uint32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, v)
		return buf
	case kmath.Vec2:
		return floatsToBytes(v.X, v.Y)
	case kmath.Vec3:
		return floatsToBytes(v.X, v.Y, v.Z)
	case kmath.Vec4:
		return floatsToBytes(v.X, v.Y, v.Z, v.W)
	case kmath.Mat4:
		return floatsToBytes(v.Data[:]...)
	case []byte:
		return v
	default:
		return nil
	}
}

func floatsToBytes(values ...float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
