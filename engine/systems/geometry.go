package systems

import (
	"fmt"
	"unsafe"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/math"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
	"github.com/kilnengine/kiln/engine/systems/loaders"
)

/** @brief Configuration for the geometry system. */
type GeometrySystemConfig struct {
	/** @brief The maximum number of geometries held at once. NOTE: should be significantly higher than the number of meshes, because there can and will be more than one geometry per mesh. */
	MaxGeometryCount uint32
}

/**
 * GeometrySystem owns the fixed-capacity geometry registry plus the two
 * always-present default geometries (one 3D quad, one 2D quad) used as a
 * fallback whenever a requested geometry cannot be created. Vertex/index
 * upload is delegated to the renderer system, which owns the shared
 * device-local buffers; material lookups are delegated to the material
 * system rather than a package-level accessor.
 */
type GeometrySystem struct {
	config GeometrySystemConfig

	materials *MaterialSystem
	renderer  *RendererSystem

	registered        []*metadata.GeometryReference
	defaultGeometry   *metadata.Geometry
	default2DGeometry *metadata.Geometry
}

func NewGeometrySystem(config *GeometrySystemConfig, materials *MaterialSystem, renderer *RendererSystem) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("geometry system config.MaxGeometryCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	gs := &GeometrySystem{
		config:    *config,
		materials: materials,
		renderer:  renderer,
		registered: make([]*metadata.GeometryReference, config.MaxGeometryCount),
	}
	for i := uint32(0); i < config.MaxGeometryCount; i++ {
		gs.registered[i] = &metadata.GeometryReference{
			Geometry: &metadata.Geometry{
				ID:         loaders.InvalidID,
				InternalID: loaders.InvalidID,
				Generation: loaders.InvalidIDUint16,
			},
		}
	}

	core.MemoryAllocate(uint64(config.MaxGeometryCount)*uint64(unsafe.Sizeof(metadata.GeometryReference{})), core.MemoryTagArray)

	if err := gs.createDefaultGeometries(); err != nil {
		return nil, fmt.Errorf("failed to create default geometries, application cannot continue: %w", err)
	}

	return gs, nil
}

func (gs *GeometrySystem) Shutdown() error {
	core.MemoryFree(uint64(len(gs.registered))*uint64(unsafe.Sizeof(metadata.GeometryReference{})), core.MemoryTagArray)
	return nil
}

/** AcquireByID increments the reference count of an already-registered geometry. */
func (gs *GeometrySystem) AcquireByID(id uint32) (*metadata.Geometry, error) {
	if id == loaders.InvalidID || gs.registered[id].Geometry.ID == loaders.InvalidID {
		err := fmt.Errorf("cannot acquire invalid geometry id %d", id)
		core.LogError(err.Error())
		return nil, err
	}
	gs.registered[id].ReferenceCount++
	return gs.registered[id].Geometry, nil
}

/** AcquireFromConfig registers and uploads a new geometry built from config. */
func (gs *GeometrySystem) AcquireFromConfig(config *metadata.GeometryConfig, autoRelease bool) (*metadata.Geometry, error) {
	var geometry *metadata.Geometry
	for i := uint32(0); i < gs.config.MaxGeometryCount; i++ {
		if gs.registered[i].Geometry.ID == loaders.InvalidID {
			gs.registered[i].AutoRelease = autoRelease
			gs.registered[i].ReferenceCount = 1
			geometry = gs.registered[i].Geometry
			geometry.ID = i
			break
		}
	}
	if geometry == nil {
		err := fmt.Errorf("geometry system has no free slot; increase MaxGeometryCount")
		core.LogError(err.Error())
		return nil, err
	}

	if err := gs.createGeometry(config, geometry); err != nil {
		core.LogError("failed to create geometry '%s': %s", config.Name, err.Error())
		return nil, err
	}
	return geometry, nil
}

/** ConfigDispose frees the CPU-side vertex/index arrays backing a generated config. */
func (gs *GeometrySystem) ConfigDispose(config *metadata.GeometryConfig) {
	config.Vertices = nil
	config.Indices = nil
}

/** Release decrements a geometry's reference count, destroying it if it reaches zero with auto-release set. */
func (gs *GeometrySystem) Release(geometry *metadata.Geometry) {
	if geometry == nil || geometry.ID == loaders.InvalidID {
		core.LogWarn("cannot release invalid geometry; nothing was done")
		return
	}
	ref := gs.registered[geometry.ID]
	if ref.Geometry.ID != geometry.ID {
		core.LogError("geometry id mismatch on release; this should never happen")
		return
	}
	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}
	if ref.ReferenceCount < 1 && ref.AutoRelease {
		gs.destroyGeometry(ref.Geometry)
		ref.ReferenceCount = 0
		ref.AutoRelease = false
	}
}

func (gs *GeometrySystem) GetDefault() *metadata.Geometry   { return gs.defaultGeometry }
func (gs *GeometrySystem) GetDefault2D() *metadata.Geometry { return gs.default2DGeometry }

/**
 * GeneratePlaneConfig builds a tessellated plane in the XY plane. Emits
 * 4*xSegs*ySegs vertices (duplicated per quad) and 6*xSegs*ySegs indices
 * (two triangles per quad, winding {0,1,2,0,3,1}).
 */
func (gs *GeometrySystem) GeneratePlaneConfig(width, height float32, xSegmentCount, ySegmentCount uint32, tileX, tileY float32, name, materialName string) (*metadata.GeometryConfig, error) {
	if width == 0 {
		core.LogWarn("plane width must be nonzero; defaulting to one")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("plane height must be nonzero; defaulting to one")
		height = 1.0
	}
	if xSegmentCount < 1 {
		xSegmentCount = 1
	}
	if ySegmentCount < 1 {
		ySegmentCount = 1
	}
	if tileX == 0 {
		tileX = 1.0
	}
	if tileY == 0 {
		tileY = 1.0
	}

	config := &metadata.GeometryConfig{
		VertexCount: xSegmentCount * ySegmentCount * 4,
		Vertices:    make([]math.Vertex3D, xSegmentCount*ySegmentCount*4),
		IndexSize:   4,
		IndexCount:  xSegmentCount * ySegmentCount * 6,
		Indices:     make([]uint32, xSegmentCount*ySegmentCount*6),
	}

	segWidth := width / float32(xSegmentCount)
	segHeight := height / float32(ySegmentCount)
	halfWidth := width * 0.5
	halfHeight := height * 0.5

	for y := uint32(0); y < ySegmentCount; y++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			minX := float32(x)*segWidth - halfWidth
			minY := float32(y)*segHeight - halfHeight
			maxX := minX + segWidth
			maxY := minY + segHeight
			minU := (float32(x) / float32(xSegmentCount)) * tileX
			minV := (float32(y) / float32(ySegmentCount)) * tileY
			maxU := (float32(x+1) / float32(xSegmentCount)) * tileX
			maxV := (float32(y+1) / float32(ySegmentCount)) * tileY

			vOffset := ((y * xSegmentCount) + x) * 4
			config.Vertices[vOffset+0] = math.Vertex3D{Position: math.NewVec3(minX, minY, 0), Texcoord: math.NewVec2(minU, minV)}
			config.Vertices[vOffset+1] = math.Vertex3D{Position: math.NewVec3(maxX, maxY, 0), Texcoord: math.NewVec2(maxU, maxV)}
			config.Vertices[vOffset+2] = math.Vertex3D{Position: math.NewVec3(minX, maxY, 0), Texcoord: math.NewVec2(minU, maxV)}
			config.Vertices[vOffset+3] = math.Vertex3D{Position: math.NewVec3(maxX, minY, 0), Texcoord: math.NewVec2(maxU, minV)}

			iOffset := ((y * xSegmentCount) + x) * 6
			config.Indices[iOffset+0] = vOffset + 0
			config.Indices[iOffset+1] = vOffset + 1
			config.Indices[iOffset+2] = vOffset + 2
			config.Indices[iOffset+3] = vOffset + 0
			config.Indices[iOffset+4] = vOffset + 3
			config.Indices[iOffset+5] = vOffset + 1
		}
	}

	if name != "" {
		config.Name = name
	} else {
		config.Name = metadata.DefaultGeometryName
	}
	if materialName != "" {
		config.MaterialName = materialName
	} else {
		config.MaterialName = metadata.DefaultMaterialName
	}

	return config, nil
}

/** GenerateCubeConfig builds a six-face cube, four verts/face with per-face normals. */
func (gs *GeometrySystem) GenerateCubeConfig(width, height, depth, tileX, tileY float32, name, materialName string) (*metadata.GeometryConfig, error) {
	if width == 0 {
		width = 1.0
	}
	if height == 0 {
		height = 1.0
	}
	if depth == 0 {
		depth = 1.0
	}
	if tileX == 0 {
		tileX = 1.0
	}
	if tileY == 0 {
		tileY = 1.0
	}

	config := &metadata.GeometryConfig{
		VertexCount: 4 * 6,
		Vertices:    make([]math.Vertex3D, 4*6),
		IndexSize:   4,
		IndexCount:  6 * 6,
		Indices:     make([]uint32, 6*6),
	}

	hw, hh, hd := width*0.5, height*0.5, depth*0.5
	minX, minY, minZ := -hw, -hh, -hd
	maxX, maxY, maxZ := hw, hh, hd
	minU, minV := float32(0.0), float32(0.0)
	maxU, maxV := tileX, tileY

	config.MinExtents = math.NewVec3(minX, minY, minZ)
	config.MaxExtents = math.NewVec3(maxX, maxY, maxZ)
	config.Center = math.NewVec3(0, 0, 0)

	type face struct {
		positions [4]math.Vec3
		normal    math.Vec3
	}
	faces := [6]face{
		{[4]math.Vec3{math.NewVec3(minX, minY, maxZ), math.NewVec3(maxX, maxY, maxZ), math.NewVec3(minX, maxY, maxZ), math.NewVec3(maxX, minY, maxZ)}, math.NewVec3(0, 0, 1)},
		{[4]math.Vec3{math.NewVec3(maxX, minY, minZ), math.NewVec3(minX, maxY, minZ), math.NewVec3(maxX, maxY, minZ), math.NewVec3(minX, minY, minZ)}, math.NewVec3(0, 0, -1)},
		{[4]math.Vec3{math.NewVec3(minX, minY, minZ), math.NewVec3(minX, maxY, maxZ), math.NewVec3(minX, maxY, minZ), math.NewVec3(minX, minY, maxZ)}, math.NewVec3(-1, 0, 0)},
		{[4]math.Vec3{math.NewVec3(maxX, minY, maxZ), math.NewVec3(maxX, maxY, minZ), math.NewVec3(maxX, maxY, maxZ), math.NewVec3(maxX, minY, minZ)}, math.NewVec3(1, 0, 0)},
		{[4]math.Vec3{math.NewVec3(maxX, minY, maxZ), math.NewVec3(minX, minY, minZ), math.NewVec3(maxX, minY, minZ), math.NewVec3(minX, minY, maxZ)}, math.NewVec3(0, -1, 0)},
		{[4]math.Vec3{math.NewVec3(minX, maxY, maxZ), math.NewVec3(maxX, maxY, minZ), math.NewVec3(minX, maxY, minZ), math.NewVec3(maxX, maxY, maxZ)}, math.NewVec3(0, 1, 0)},
	}
	uvs := [4]math.Vec2{math.NewVec2(minU, minV), math.NewVec2(maxU, maxV), math.NewVec2(minU, maxV), math.NewVec2(maxU, minV)}

	for i, f := range faces {
		for j := 0; j < 4; j++ {
			config.Vertices[i*4+j] = math.Vertex3D{Position: f.positions[j], Texcoord: uvs[j], Normal: f.normal}
		}
		iOffset := i * 6
		vOffset := uint32(i * 4)
		config.Indices[iOffset+0] = vOffset + 0
		config.Indices[iOffset+1] = vOffset + 1
		config.Indices[iOffset+2] = vOffset + 2
		config.Indices[iOffset+3] = vOffset + 0
		config.Indices[iOffset+4] = vOffset + 3
		config.Indices[iOffset+5] = vOffset + 1
	}

	if name != "" {
		config.Name = name
	} else {
		config.Name = metadata.DefaultGeometryName
	}
	if materialName != "" {
		config.MaterialName = materialName
	} else {
		config.MaterialName = metadata.DefaultMaterialName
	}

	config.Vertices = math.GeometryGenerateTangents(config.VertexCount, config.Vertices, config.IndexCount, config.Indices)

	return config, nil
}

func (gs *GeometrySystem) createDefaultGeometries() error {
	f := float32(10.0)
	verts := []math.Vertex3D{
		{Position: math.NewVec3(-0.5*f, -0.5*f, 0), Texcoord: math.NewVec2(0, 0)},
		{Position: math.NewVec3(0.5*f, 0.5*f, 0), Texcoord: math.NewVec2(1, 1)},
		{Position: math.NewVec3(-0.5*f, 0.5*f, 0), Texcoord: math.NewVec2(0, 1)},
		{Position: math.NewVec3(0.5*f, -0.5*f, 0), Texcoord: math.NewVec2(1, 0)},
	}
	indices := []uint32{0, 1, 2, 0, 3, 1}

	gs.defaultGeometry = &metadata.Geometry{InternalID: loaders.InvalidID, ID: loaders.InvalidID, Generation: loaders.InvalidIDUint16}
	if err := gs.renderer.CreateGeometry(gs.defaultGeometry, 0, 4, verts, 0, 6, indices); err != nil {
		return fmt.Errorf("failed to create default geometry: %w", err)
	}
	gs.defaultGeometry.Material = gs.materials.GetDefault()

	verts2d := []math.Vertex2D{
		{Position: math.NewVec2(-0.5*f, -0.5*f), Texcoord: math.NewVec2(0, 0)},
		{Position: math.NewVec2(0.5*f, 0.5*f), Texcoord: math.NewVec2(1, 1)},
		{Position: math.NewVec2(-0.5*f, 0.5*f), Texcoord: math.NewVec2(0, 1)},
		{Position: math.NewVec2(0.5*f, -0.5*f), Texcoord: math.NewVec2(1, 0)},
	}
	// Counter-clockwise winding for 2D/UI space.
	indices2d := []uint32{2, 1, 0, 3, 0, 1}

	gs.default2DGeometry = &metadata.Geometry{InternalID: loaders.InvalidID, ID: loaders.InvalidID, Generation: loaders.InvalidIDUint16}
	if err := gs.renderer.CreateGeometry(gs.default2DGeometry, 0, 4, verts2d, 0, 6, indices2d); err != nil {
		return fmt.Errorf("failed to create default 2d geometry: %w", err)
	}
	gs.default2DGeometry.Material = gs.materials.GetDefault()

	return nil
}

func (gs *GeometrySystem) createGeometry(config *metadata.GeometryConfig, geometry *metadata.Geometry) error {
	if err := gs.renderer.CreateGeometry(geometry, config.VertexSize, config.VertexCount, config.Vertices, config.IndexSize, config.IndexCount, config.Indices); err != nil {
		ref := gs.registered[geometry.ID]
		ref.ReferenceCount = 0
		ref.AutoRelease = false
		geometry.ID = loaders.InvalidID
		geometry.Generation = loaders.InvalidIDUint16
		geometry.InternalID = loaders.InvalidID
		return err
	}

	geometry.Center = config.Center
	geometry.Extents.Min = config.MinExtents
	geometry.Extents.Max = config.MaxExtents
	geometry.Name = config.Name

	if config.MaterialName != "" {
		mat, err := gs.materials.Acquire(config.MaterialName)
		if err != nil {
			core.LogWarn("geometry '%s' falling back to the default material: %s", config.Name, err.Error())
			mat = gs.materials.GetDefault()
		}
		geometry.Material = mat
	}
	return nil
}

func (gs *GeometrySystem) destroyGeometry(geometry *metadata.Geometry) {
	gs.renderer.DestroyGeometry(geometry)
	geometry.InternalID = loaders.InvalidID
	geometry.Generation = loaders.InvalidIDUint16
	geometry.ID = loaders.InvalidID
	geometry.Name = ""

	if geometry.Material != nil && geometry.Material.Name != "" {
		gs.materials.Release(geometry.Material.Name)
		geometry.Material = nil
	}
}
