package systems

import (
	"fmt"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// MeshLoaderSystem turns a model resource on disk into a Mesh's GPU-backed
// Geometries. Loading happens on the calling goroutine: geometry creation
// touches the renderer, and the renderer backend isn't safe to drive from
// more than one thread yet.
type MeshLoaderSystem struct {
	geometrySystem *GeometrySystem
	resourceSystem *ResourceSystem
}

func NewMeshLoaderSystem(geometrySystem *GeometrySystem, resourceSystem *ResourceSystem) (*MeshLoaderSystem, error) {
	if geometrySystem == nil || resourceSystem == nil {
		return nil, fmt.Errorf("mesh loader system requires a geometry system and a resource system")
	}
	return &MeshLoaderSystem{
		geometrySystem: geometrySystem,
		resourceSystem: resourceSystem,
	}, nil
}

// LoadFromResource loads the named model resource and populates outMesh
// with the resulting geometries. Returns false on any failure, logging the
// cause, so callers can treat mesh loads the same way texture/material
// loads report failure.
func (mls *MeshLoaderSystem) LoadFromResource(resourceName string, outMesh *metadata.Mesh) bool {
	resource, err := mls.resourceSystem.Load(resourceName, metadata.ResourceTypeMesh, nil)
	if err != nil {
		core.LogError("failed to load mesh resource '%s': %s", resourceName, err.Error())
		return false
	}
	defer mls.resourceSystem.Unload(resource)

	configs, ok := resource.Data.([]*metadata.GeometryConfig)
	if !ok || len(configs) == 0 {
		core.LogError("mesh resource '%s' did not contain any geometry configs", resourceName)
		return false
	}

	outMesh.GeometryCount = uint16(len(configs))
	outMesh.Geometries = make([]*metadata.Geometry, outMesh.GeometryCount)

	for i, config := range configs {
		geometry, err := mls.geometrySystem.AcquireFromConfig(config, true)
		if err != nil {
			core.LogError("failed to acquire geometry %d of mesh '%s': %s", i, resourceName, err.Error())
			return false
		}
		outMesh.Geometries[i] = geometry
	}
	outMesh.UniqueID = core.IdentifierAcquireNewID(outMesh)
	outMesh.Generation++

	core.LogDebug("Successfully loaded mesh '%s'.", resourceName)

	return true
}

// Unload releases every geometry a mesh holds back to the geometry system.
func (mls *MeshLoaderSystem) Unload(mesh *metadata.Mesh) {
	for _, geometry := range mesh.Geometries {
		if geometry != nil {
			mls.geometrySystem.Release(geometry)
		}
	}
	if err := core.IdentifierReleaseID(mesh.UniqueID); err != nil {
		core.LogWarn(err.Error())
	}
	mesh.Geometries = nil
	mesh.GeometryCount = 0
}
