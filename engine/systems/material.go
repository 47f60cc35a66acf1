package systems

import (
	"fmt"
	"unsafe"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/math"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
	"github.com/kilnengine/kiln/engine/systems/loaders"
)

const builtinShaderNameMaterial string = "Shader.Builtin.Material"

/** @brief Configuration for the material system. */
type MaterialSystemConfig struct {
	/** @brief The maximum number of loaded materials. */
	MaxMaterialCount uint32
}

/**
 * MaterialSystem owns the fixed-capacity material registry plus the
 * always-present default material. Materials are acquired either from a
 * .kmt resource on disk (via the resource system) or a config built in
 * code, and each holds an InternalID allocated by the configured shader's
 * per-instance descriptor sets (via the renderer system).
 */
type MaterialSystem struct {
	config MaterialSystemConfig

	shaders  *ShaderSystem
	textures *TextureSystem
	resource *ResourceSystem
	renderer *RendererSystem

	defaultMaterial *metadata.Material
	registered      []*metadata.Material
	table           map[string]*metadata.MaterialReference
}

func NewMaterialSystem(config *MaterialSystemConfig, shaders *ShaderSystem, textures *TextureSystem, resource *ResourceSystem, renderer *RendererSystem) (*MaterialSystem, error) {
	if config.MaxMaterialCount == 0 {
		err := fmt.Errorf("material system config.MaxMaterialCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	ms := &MaterialSystem{
		config:     *config,
		shaders:    shaders,
		textures:   textures,
		resource:   resource,
		renderer:   renderer,
		registered: make([]*metadata.Material, config.MaxMaterialCount),
		table:      make(map[string]*metadata.MaterialReference),
	}
	for i := uint32(0); i < config.MaxMaterialCount; i++ {
		ms.registered[i] = &metadata.Material{ID: loaders.InvalidID, Generation: loaders.InvalidID, InternalID: loaders.InvalidID}
	}
	core.MemoryAllocate(uint64(config.MaxMaterialCount)*uint64(unsafe.Sizeof(metadata.Material{})), core.MemoryTagMaterialInstance)

	if err := ms.createDefaultMaterial(); err != nil {
		return nil, fmt.Errorf("failed to create default material, application cannot continue: %w", err)
	}

	return ms, nil
}

func (ms *MaterialSystem) Shutdown() error {
	for _, m := range ms.registered {
		if m.ID != loaders.InvalidID {
			ms.destroyMaterial(m)
		}
	}
	core.MemoryFree(uint64(len(ms.registered))*uint64(unsafe.Sizeof(metadata.Material{})), core.MemoryTagMaterialInstance)
	return nil
}

func (ms *MaterialSystem) GetDefault() *metadata.Material { return ms.defaultMaterial }

/** Acquire loads a material from its name.kmt resource file, refcounting by name. */
func (ms *MaterialSystem) Acquire(name string) (*metadata.Material, error) {
	res, err := ms.resource.Load(name, metadata.ResourceTypeMaterial, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load material resource '%s': %w", name, err)
	}
	defer ms.resource.Unload(res)

	config, ok := res.Data.(*metadata.MaterialConfig)
	if !ok {
		return nil, fmt.Errorf("material resource '%s' produced unexpected data", name)
	}
	return ms.AcquireFromConfig(config)
}

/** AcquireFromConfig acquires (or increments the refcount of) a material built directly from config. */
func (ms *MaterialSystem) AcquireFromConfig(config *metadata.MaterialConfig) (*metadata.Material, error) {
	if config.Name == metadata.DefaultMaterialName {
		return ms.defaultMaterial, nil
	}

	ref, exists := ms.table[config.Name]
	if !exists {
		ref = &metadata.MaterialReference{Handle: loaders.InvalidID}
		ms.table[config.Name] = ref
	}
	if ref.Handle != loaders.InvalidID && ref.ReferenceCount > 0 {
		ref.ReferenceCount++
		return ms.registered[ref.Handle], nil
	}

	handle := loaders.InvalidID
	for i := uint32(0); i < ms.config.MaxMaterialCount; i++ {
		if ms.registered[i].ID == loaders.InvalidID {
			handle = i
			break
		}
	}
	if handle == loaders.InvalidID {
		err := fmt.Errorf("material system has no free slot; increase MaxMaterialCount")
		core.LogError(err.Error())
		return nil, err
	}

	material := ms.registered[handle]
	if err := ms.loadMaterial(config, material); err != nil {
		core.LogError("failed to load material '%s': %s", config.Name, err.Error())
		delete(ms.table, config.Name)
		return nil, err
	}
	material.ID = handle

	ref.Handle = handle
	ref.ReferenceCount = 1
	ref.AutoRelease = config.AutoRelease

	return material, nil
}

/** Release decrements a material's reference count by name, destroying it if it reaches zero with auto-release set. */
func (ms *MaterialSystem) Release(name string) {
	if name == metadata.DefaultMaterialName {
		return
	}
	ref, exists := ms.table[name]
	if !exists {
		core.LogWarn("tried to release non-existent material '%s'; nothing was done", name)
		return
	}
	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}
	if ref.ReferenceCount < 1 && ref.AutoRelease {
		material := ms.registered[ref.Handle]
		ms.destroyMaterial(material)
		ref.Handle = loaders.InvalidID
		ref.AutoRelease = false
		delete(ms.table, name)
	} else if ref.ReferenceCount == 0 {
		delete(ms.table, name)
	}
}

func (ms *MaterialSystem) loadMaterial(config *metadata.MaterialConfig, material *metadata.Material) error {
	material.Name = config.Name
	material.DiffuseColour = config.DiffuseColour
	material.Shininess = config.Shininess

	shader, err := ms.shaders.GetShader(config.ShaderName)
	if err != nil {
		return fmt.Errorf("material '%s' references unknown shader '%s': %w", config.Name, config.ShaderName, err)
	}
	material.ShaderID = shader.ID

	if err := ms.assignMap(&material.DiffuseMap, metadata.TextureUseMapDiffuse, config.DiffuseMapName, ms.textures.GetDefaultDiffuseTexture()); err != nil {
		return err
	}
	if err := ms.assignMap(&material.SpecularMap, metadata.TextureUseMapSpecular, config.SpecularMapName, ms.textures.GetDefaultSpecularTexture()); err != nil {
		return err
	}
	if err := ms.assignMap(&material.NormalMap, metadata.TextureUseMapNormal, config.NormalMapName, ms.textures.GetDefaultNormalTexture()); err != nil {
		return err
	}

	maps := []*metadata.TextureMap{&material.DiffuseMap, &material.SpecularMap, &material.NormalMap}
	internalID, err := ms.renderer.ShaderAcquireInstanceResources(shader, maps)
	if err != nil {
		return fmt.Errorf("failed to acquire renderer instance resources for material '%s': %w", config.Name, err)
	}
	material.InternalID = internalID

	return nil
}

func (ms *MaterialSystem) assignMap(m *metadata.TextureMap, use metadata.TextureUse, textureName string, defaultTexture *metadata.Texture) error {
	m.Use = use
	m.FilterMinify = metadata.TextureFilterModeLinear
	m.FilterMagnify = metadata.TextureFilterModeLinear
	m.RepeatU = metadata.TextureRepeatRepeat
	m.RepeatV = metadata.TextureRepeatRepeat
	m.RepeatW = metadata.TextureRepeatRepeat

	if textureName == "" {
		m.Texture = defaultTexture
		return nil
	}
	texture, err := ms.textures.Acquire(textureName, true)
	if err != nil {
		core.LogWarn("failed to load texture map '%s'; falling back to default: %s", textureName, err.Error())
		texture = defaultTexture
	}
	m.Texture = texture

	if err := ms.renderer.TextureMapAcquireResources(m); err != nil {
		return fmt.Errorf("failed to acquire texture map resources: %w", err)
	}
	return nil
}

func (ms *MaterialSystem) destroyMaterial(material *metadata.Material) {
	if material.DiffuseMap.Texture != nil {
		ms.textures.Release(material.DiffuseMap.Texture.Name)
		ms.renderer.TextureMapReleaseResources(&material.DiffuseMap)
	}
	if material.SpecularMap.Texture != nil {
		ms.textures.Release(material.SpecularMap.Texture.Name)
		ms.renderer.TextureMapReleaseResources(&material.SpecularMap)
	}
	if material.NormalMap.Texture != nil {
		ms.textures.Release(material.NormalMap.Texture.Name)
		ms.renderer.TextureMapReleaseResources(&material.NormalMap)
	}

	if material.ShaderID != loaders.InvalidID {
		if shader, err := ms.shaders.GetShaderByID(material.ShaderID); err == nil {
			ms.renderer.ShaderReleaseInstanceResources(shader, material.InternalID)
		}
	}

	*material = metadata.Material{ID: loaders.InvalidID, Generation: loaders.InvalidID, InternalID: loaders.InvalidID}
}

func (ms *MaterialSystem) createDefaultMaterial() error {
	material := &metadata.Material{
		ID:            loaders.InvalidID,
		Generation:    loaders.InvalidID,
		InternalID:    loaders.InvalidID,
		Name:          metadata.DefaultMaterialName,
		DiffuseColour: math.NewVec4Create(1, 1, 1, 1),
		Shininess:     8.0,
	}

	if err := ms.assignMap(&material.DiffuseMap, metadata.TextureUseMapDiffuse, "", ms.textures.GetDefaultTexture()); err != nil {
		return err
	}
	if err := ms.assignMap(&material.SpecularMap, metadata.TextureUseMapSpecular, "", ms.textures.GetDefaultSpecularTexture()); err != nil {
		return err
	}
	if err := ms.assignMap(&material.NormalMap, metadata.TextureUseMapNormal, "", ms.textures.GetDefaultNormalTexture()); err != nil {
		return err
	}

	shader, err := ms.shaders.GetShader(builtinShaderNameMaterial)
	if err != nil {
		core.LogWarn("default material could not bind to '%s' yet (shader not registered): %s", builtinShaderNameMaterial, err.Error())
		ms.defaultMaterial = material
		return nil
	}
	material.ShaderID = shader.ID

	maps := []*metadata.TextureMap{&material.DiffuseMap, &material.SpecularMap, &material.NormalMap}
	internalID, err := ms.renderer.ShaderAcquireInstanceResources(shader, maps)
	if err != nil {
		return fmt.Errorf("failed to acquire renderer instance resources for default material: %w", err)
	}
	material.InternalID = internalID

	ms.defaultMaterial = material
	return nil
}
