package systems

import (
	"fmt"
	"unsafe"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
	"github.com/kilnengine/kiln/engine/systems/loaders"
)

/** @brief Configuration for the texture system. */
type TextureSystemConfig struct {
	/** @brief The maximum number of textures this system can hold at once. Should be quite a large number. */
	MaxTextureCount uint32
}

/**
 * TextureSystem owns the fixed-capacity texture registry and the four
 * generated-in-code default textures (checkerboard/diffuse/specular/normal).
 * Unlike the teacher's package-level singleton, every dependency the system
 * needs to actually create GPU-backed textures (job scheduling, asset
 * loading, the renderer backend) is threaded in at construction time so the
 * system can be exercised from tests without touching process-global state.
 */
type TextureSystem struct {
	config TextureSystemConfig

	jobs     *JobSystem
	resource *ResourceSystem
	renderer *RendererSystem

	defaultTexture         *metadata.Texture
	defaultDiffuseTexture  *metadata.Texture
	defaultSpecularTexture *metadata.Texture
	defaultNormalTexture   *metadata.Texture

	// Fixed-capacity slot array; a slot is free when its ID is loaders.InvalidID.
	textures []*metadata.Texture
	// Name -> reference-count/handle/auto-release bookkeeping. Entries are
	// created lazily on first acquire, not pre-seeded with throwaway keys.
	table map[string]*metadata.TextureReference
}

func NewTextureSystem(config *TextureSystemConfig, js *JobSystem, rs *ResourceSystem, renderer *RendererSystem) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("texture system config.MaxTextureCount must be > 0")
		core.LogFatal(err.Error())
		return nil, err
	}

	ts := &TextureSystem{
		config:   *config,
		jobs:     js,
		resource: rs,
		renderer: renderer,
		textures: make([]*metadata.Texture, config.MaxTextureCount),
		table:    make(map[string]*metadata.TextureReference, config.MaxTextureCount),
	}

	for i := uint32(0); i < config.MaxTextureCount; i++ {
		ts.textures[i] = &metadata.Texture{
			ID:         loaders.InvalidID,
			Generation: loaders.InvalidID,
		}
	}
	core.MemoryAllocate(uint64(config.MaxTextureCount)*uint64(unsafe.Sizeof(metadata.Texture{})), core.MemoryTagTexture)

	if err := ts.createDefaultTextures(); err != nil {
		return nil, err
	}

	return ts, nil
}

func (ts *TextureSystem) Shutdown() error {
	for _, t := range ts.textures {
		if t.Generation != loaders.InvalidID {
			if err := ts.renderer.TextureDestroy(t); err != nil {
				return err
			}
		}
	}
	core.MemoryFree(uint64(len(ts.textures))*uint64(unsafe.Sizeof(metadata.Texture{})), core.MemoryTagTexture)
	return ts.destroyDefaultTextures()
}

/**
 * Acquire looks a texture up by name, triggering a load on first reference.
 * Returns the default texture if name refers to it directly (callers should
 * prefer GetDefaultTexture for that).
 */
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*metadata.Texture, error) {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		core.LogWarn("TextureSystem.Acquire called for the default texture; use GetDefaultTexture instead")
		return ts.defaultTexture, nil
	}
	id, ok := ts.processReference(name, metadata.TextureType2d, 1, autoRelease, false)
	if !ok {
		err := fmt.Errorf("texture system failed to obtain a texture id for '%s'", name)
		core.LogError(err.Error())
		return nil, err
	}
	return ts.textures[id], nil
}

/**
 * AcquireCube loads (or references) the six faces of a cubemap whose names
 * are derived from name by suffix: _f/_b/_u/_d/_r/_l.
 */
func (ts *TextureSystem) AcquireCube(name string, autoRelease bool) (*metadata.Texture, error) {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		core.LogWarn("TextureSystem.AcquireCube called for the default texture; use GetDefaultTexture instead")
		return ts.defaultTexture, nil
	}
	id, ok := ts.processReference(name, metadata.TextureTypeCube, 1, autoRelease, false)
	if !ok {
		err := fmt.Errorf("texture system failed to obtain a cube texture id for '%s'", name)
		core.LogError(err.Error())
		return nil, err
	}
	return ts.textures[id], nil
}

/**
 * AcquireWriteable registers a texture that is never loaded from disk; the
 * caller (typically the renderer, for a render target) owns writing its
 * contents. Writeable textures are never auto-released.
 */
func (ts *TextureSystem) AcquireWriteable(name string, width, height uint32, channelCount uint8, hasTransparency bool) (*metadata.Texture, error) {
	id, ok := ts.processReference(name, metadata.TextureType2d, 1, false, true)
	if !ok {
		err := fmt.Errorf("texture system failed to obtain a writeable texture id for '%s'", name)
		core.LogError(err.Error())
		return nil, err
	}

	texture := ts.textures[id]
	texture.ID = id
	texture.TextureType = metadata.TextureType2d
	texture.Name = name
	texture.Width = width
	texture.Height = height
	texture.ChannelCount = channelCount
	texture.Generation = loaders.InvalidID
	texture.Flags = 0
	if hasTransparency {
		texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}
	texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagIsWriteable)
	texture.InternalData = nil

	if err := ts.renderer.TextureCreateWriteable(texture); err != nil {
		return nil, err
	}
	return texture, nil
}

/** Release decrements the reference count for name, destroying on reaching zero with auto-release set. */
func (ts *TextureSystem) Release(name string) {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		return
	}
	id, ok := ts.processReference(name, metadata.TextureType2d, -1, false, false)
	if !ok {
		core.LogError("texture system failed to release texture '%s' properly", name)
		return
	}
	core.LogDebug("texture '%s' (id %d) released", name, id)
}

/** WrapInternal adopts renderer-created internal data as a frontend texture, optionally registering it for name lookup. */
func (ts *TextureSystem) WrapInternal(name string, width, height uint32, channelCount uint8, hasTransparency, isWriteable, registerTexture bool, internalData interface{}) (*metadata.Texture, error) {
	id := loaders.InvalidID
	var texture *metadata.Texture
	if registerTexture {
		var ok bool
		id, ok = ts.processReference(name, metadata.TextureType2d, 1, false, true)
		if !ok {
			err := fmt.Errorf("texture system failed to obtain a wrapped texture id for '%s'", name)
			core.LogError(err.Error())
			return nil, err
		}
		texture = ts.textures[id]
	} else {
		texture = &metadata.Texture{}
	}

	texture.ID = id
	texture.TextureType = metadata.TextureType2d
	texture.Name = name
	texture.Width = width
	texture.Height = height
	texture.ChannelCount = channelCount
	texture.Generation = loaders.InvalidID
	texture.InternalData = internalData
	texture.Flags = 0
	if hasTransparency {
		texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}
	if isWriteable {
		texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagIsWriteable)
	}
	texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagIsWrapped)

	return texture, nil
}

/** SetInternal replaces a texture's backend payload and bumps its generation. */
func (ts *TextureSystem) SetInternal(texture *metadata.Texture, internalData interface{}) bool {
	if texture == nil {
		return false
	}
	texture.InternalData = internalData
	texture.Generation++
	return true
}

/** Resize is only legal on writeable textures; regenerateInternalData re-issues the GPU-side resize. */
func (ts *TextureSystem) Resize(texture *metadata.Texture, width, height uint32, regenerateInternalData bool) bool {
	if texture == nil {
		return false
	}
	if texture.Flags&metadata.TextureFlagBits(metadata.TextureFlagIsWriteable) == 0 {
		core.LogWarn("TextureSystem.Resize should not be called on textures that are not writeable")
		return false
	}
	texture.Width = width
	texture.Height = height
	if texture.Flags&metadata.TextureFlagBits(metadata.TextureFlagIsWrapped) == 0 && regenerateInternalData {
		ts.renderer.TextureResize(texture, width, height)
		return false
	}
	texture.Generation++
	return true
}

/** WriteData uploads a byte range into a writeable texture's backing image. */
func (ts *TextureSystem) WriteData(texture *metadata.Texture, offset, size uint32, data []uint8) bool {
	if texture == nil {
		return false
	}
	ts.renderer.TextureWriteData(texture, offset, size, data)
	return true
}

func (ts *TextureSystem) GetDefaultTexture() *metadata.Texture         { return ts.defaultTexture }
func (ts *TextureSystem) GetDefaultDiffuseTexture() *metadata.Texture  { return ts.defaultDiffuseTexture }
func (ts *TextureSystem) GetDefaultSpecularTexture() *metadata.Texture { return ts.defaultSpecularTexture }
func (ts *TextureSystem) GetDefaultNormalTexture() *metadata.Texture   { return ts.defaultNormalTexture }

// checkerboardDimension is the edge length, in pixels, of the generated default texture.
const checkerboardDimension = 256

func (ts *TextureSystem) createDefaultTextures() error {
	channels := uint32(4)
	pixelCount := uint32(checkerboardDimension * checkerboardDimension)
	pixels := make([]uint8, pixelCount*channels)
	for i := range pixels {
		pixels[i] = 255
	}
	for row := uint32(0); row < checkerboardDimension; row++ {
		for col := uint32(0); col < checkerboardDimension; col++ {
			index := (row*checkerboardDimension + col) * channels
			if (row % 2) == (col % 2) {
				// White square: leave as-is.
				continue
			}
			// Blue square.
			pixels[index+0] = 0
			pixels[index+1] = 0
		}
	}

	ts.defaultTexture = &metadata.Texture{
		Name:         metadata.DEFAULT_TEXTURE_NAME,
		Width:        checkerboardDimension,
		Height:       checkerboardDimension,
		ChannelCount: 4,
		TextureType:  metadata.TextureType2d,
	}
	if err := ts.renderer.TextureCreate(pixels, ts.defaultTexture); err != nil {
		return fmt.Errorf("failed to create default texture: %w", err)
	}
	ts.defaultTexture.Generation = loaders.InvalidID

	diffuse := make([]uint8, 16*16*4)
	for i := range diffuse {
		diffuse[i] = 255
	}
	ts.defaultDiffuseTexture = &metadata.Texture{
		Name:         metadata.DEFAULT_DIFFUSE_TEXTURE_NAME,
		Width:        16,
		Height:       16,
		ChannelCount: 4,
		TextureType:  metadata.TextureType2d,
	}
	if err := ts.renderer.TextureCreate(diffuse, ts.defaultDiffuseTexture); err != nil {
		return fmt.Errorf("failed to create default diffuse texture: %w", err)
	}
	ts.defaultDiffuseTexture.Generation = loaders.InvalidID

	// Black: no specular reflectance by default.
	specular := make([]uint8, 16*16*4)
	ts.defaultSpecularTexture = &metadata.Texture{
		Name:         metadata.DEFAULT_SPECULAR_TEXTURE_NAME,
		Width:        16,
		Height:       16,
		ChannelCount: 4,
		TextureType:  metadata.TextureType2d,
	}
	if err := ts.renderer.TextureCreate(specular, ts.defaultSpecularTexture); err != nil {
		return fmt.Errorf("failed to create default specular texture: %w", err)
	}
	ts.defaultSpecularTexture.Generation = loaders.InvalidID

	normal := make([]uint8, 16*16*4)
	for row := 0; row < 16; row++ {
		for col := 0; col < 16; col++ {
			index := uint32(row*16+col) * channels
			// Straight-up tangent-space normal: (0.5, 0.5, 1.0) encoded as (128, 128, 255).
			normal[index+0] = 128
			normal[index+1] = 128
			normal[index+2] = 255
			normal[index+3] = 255
		}
	}
	ts.defaultNormalTexture = &metadata.Texture{
		Name:         metadata.DEFAULT_NORMAL_TEXTURE_NAME,
		Width:        16,
		Height:       16,
		ChannelCount: 4,
		TextureType:  metadata.TextureType2d,
	}
	if err := ts.renderer.TextureCreate(normal, ts.defaultNormalTexture); err != nil {
		return fmt.Errorf("failed to create default normal texture: %w", err)
	}
	ts.defaultNormalTexture.Generation = loaders.InvalidID

	return nil
}

func (ts *TextureSystem) destroyDefaultTextures() error {
	for _, t := range []*metadata.Texture{ts.defaultTexture, ts.defaultDiffuseTexture, ts.defaultSpecularTexture, ts.defaultNormalTexture} {
		if t != nil {
			ts.destroyTexture(t)
		}
	}
	return nil
}

func (ts *TextureSystem) loadTexture(name string, texture *metadata.Texture) bool {
	params := &metadata.TextureLoadParams{
		ResourceName:      name,
		OutTexture:        texture,
		CurrentGeneration: texture.Generation,
		TempTexture:       metadata.Texture{},
	}

	job, err := JobSystemJobCreate(ts.textureLoadStart, ts.textureLoadSuccess, ts.textureLoadFail, params)
	if err != nil {
		core.LogError("failed to create texture load job for '%s': %s", name, err.Error())
		return false
	}
	ts.jobs.Submit(job)
	return true
}

func (ts *TextureSystem) loadCubeTextures(name string, faceNames []string, texture *metadata.Texture) bool {
	var pixels []uint8
	var imageSize uint32
	for i, faceName := range faceNames {
		resource, err := ts.resource.Load(faceName, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: false})
		if err != nil {
			core.LogError("LoadCubeTextures failed to load image resource for '%s': %s", faceName, err.Error())
			return false
		}

		data, ok := resource.Data.(*metadata.ImageResourceData)
		if !ok {
			core.LogError("LoadCubeTextures: resource data for '%s' is not image data", faceName)
			return false
		}

		if pixels == nil {
			texture.Width = data.Width
			texture.Height = data.Height
			texture.ChannelCount = data.ChannelCount
			texture.Flags = 0
			texture.Generation = 0
			texture.Name = name

			imageSize = texture.Width * texture.Height * uint32(texture.ChannelCount)
			pixels = make([]uint8, imageSize*6)
		} else if texture.Width != data.Width || texture.Height != data.Height || texture.ChannelCount != data.ChannelCount {
			core.LogError("LoadCubeTextures: all six cube faces must share resolution and channel count")
			_ = ts.resource.Unload(resource)
			return false
		}

		copy(pixels[uint32(i)*imageSize:], data.Pixels[:imageSize])
		_ = ts.resource.Unload(resource)
	}

	if err := ts.renderer.TextureCreate(pixels, texture); err != nil {
		core.LogError("failed to create cube texture '%s': %s", name, err.Error())
		return false
	}
	return true
}

func (ts *TextureSystem) destroyTexture(texture *metadata.Texture) {
	_ = ts.renderer.TextureDestroy(texture)
	texture.ID = loaders.InvalidID
	texture.Generation = loaders.InvalidID
}

// processReference implements the shared acquire/release bookkeeping for
// both plain and cube textures: referenceDiff>0 acquires (creating the
// table entry and loading from disk on first reference), referenceDiff<0
// releases.
func (ts *TextureSystem) processReference(name string, textureType metadata.TextureType, referenceDiff int8, autoRelease, skipLoad bool) (uint32, bool) {
	ref, exists := ts.table[name]
	if !exists {
		if referenceDiff < 0 {
			core.LogWarn("tried to release non-existent texture '%s'", name)
			return 0, false
		}
		ref = &metadata.TextureReference{Handle: loaders.InvalidID}
		ts.table[name] = ref
	}

	if referenceDiff > 0 && ref.ReferenceCount == 0 {
		ref.AutoRelease = autoRelease
	}

	ref.ReferenceCount += uint64(referenceDiff)

	if referenceDiff < 0 {
		if ref.ReferenceCount == 0 && ref.AutoRelease {
			ts.destroyTexture(ts.textures[ref.Handle])
			ref.Handle = loaders.InvalidID
			ref.AutoRelease = false
		}
		return ref.Handle, true
	}

	if ref.Handle != loaders.InvalidID {
		return ref.Handle, true
	}

	// New reference: find a free slot.
	for i := uint32(0); i < ts.config.MaxTextureCount; i++ {
		if ts.textures[i].ID == loaders.InvalidID {
			ref.Handle = i
			break
		}
	}
	if ref.Handle == loaders.InvalidID {
		core.LogError("texture system cannot hold any more textures; increase MaxTextureCount")
		return 0, false
	}

	t := ts.textures[ref.Handle]
	t.TextureType = textureType
	if !skipLoad {
		var loaded bool
		if textureType == metadata.TextureTypeCube {
			faces := []string{
				fmt.Sprintf("%s_r", name), fmt.Sprintf("%s_l", name),
				fmt.Sprintf("%s_u", name), fmt.Sprintf("%s_d", name),
				fmt.Sprintf("%s_f", name), fmt.Sprintf("%s_b", name),
			}
			loaded = ts.loadCubeTextures(name, faces, t)
		} else {
			loaded = ts.loadTexture(name, t)
		}
		if !loaded {
			core.LogError("failed to load texture '%s'", name)
			ref.Handle = loaders.InvalidID
			return 0, false
		}
		t.ID = ref.Handle
	}

	return ref.Handle, true
}

func (ts *TextureSystem) textureLoadSuccess(params interface{}) {
	p, ok := params.(*metadata.TextureLoadParams)
	if !ok {
		core.LogError("texture load success callback received unexpected params type")
		return
	}

	resourceData, ok := p.ResourceData.(*metadata.ImageResourceData)
	if !ok {
		core.LogError("texture load success callback: resource data missing for '%s'", p.ResourceName)
		return
	}

	if err := ts.renderer.TextureCreate(resourceData.Pixels, &p.TempTexture); err != nil {
		core.LogError("failed to upload loaded texture '%s': %s", p.ResourceName, err.Error())
		return
	}

	old := *p.OutTexture
	*p.OutTexture = p.TempTexture
	_ = ts.renderer.TextureDestroy(&old)

	if p.CurrentGeneration == loaders.InvalidID {
		p.OutTexture.Generation = 0
	} else {
		p.OutTexture.Generation = p.CurrentGeneration + 1
	}

	core.LogDebug("successfully loaded texture '%s'", p.ResourceName)
}

func (ts *TextureSystem) textureLoadFail(params interface{}) {
	p, ok := params.(*metadata.TextureLoadParams)
	if !ok {
		core.LogError("texture load fail callback received unexpected params type")
		return
	}
	core.LogError("failed to load texture '%s'", p.ResourceName)
}

func (ts *TextureSystem) textureLoadStart(params, resultData interface{}) bool {
	p, ok := params.(*metadata.TextureLoadParams)
	if !ok {
		core.LogError("texture load start callback received unexpected params type")
		return false
	}

	resource, err := ts.resource.Load(p.ResourceName, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: true})
	if err != nil {
		core.LogError(err.Error())
		return false
	}

	data, ok := resource.Data.(*metadata.ImageResourceData)
	if !ok {
		core.LogError("texture load start: resource data for '%s' is not image data", p.ResourceName)
		return false
	}

	p.TempTexture.Width = data.Width
	p.TempTexture.Height = data.Height
	p.TempTexture.ChannelCount = data.ChannelCount
	p.TempTexture.Name = p.ResourceName
	p.TempTexture.Generation = loaders.InvalidID

	p.CurrentGeneration = p.OutTexture.Generation
	p.OutTexture.Generation = loaders.InvalidID

	totalSize := p.TempTexture.Width * p.TempTexture.Height * uint32(p.TempTexture.ChannelCount)
	hasTransparency := false
	for i := uint32(0); i+3 < totalSize; i += uint32(p.TempTexture.ChannelCount) {
		if data.Pixels[i+3] < 255 {
			hasTransparency = true
			break
		}
	}
	p.TempTexture.Flags = 0
	if hasTransparency {
		p.TempTexture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}

	p.ResourceData = data
	_ = ts.resource.Unload(resource)
	return true
}
