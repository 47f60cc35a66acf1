package systems

import (
	"fmt"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/components"
	"github.com/kilnengine/kiln/engine/systems/loaders"
)

/** @brief The camera system configuration. */
type CameraSystemConfig struct {
	/** @brief The maximum number of cameras that can be managed by the system. */
	MaxCameraCount uint16
}

/**
 * CameraSystem owns a fixed-capacity, name-keyed registry of cameras plus a
 * default, non-registered camera that always exists as a fallback.
 */
type CameraSystem struct {
	config CameraSystemConfig

	lookup        map[string]uint16
	cameras       []*components.CameraLookup
	defaultCamera *components.Camera
}

func NewCameraSystem(config *CameraSystemConfig) (*CameraSystem, error) {
	if config.MaxCameraCount == 0 {
		err := fmt.Errorf("camera system config.MaxCameraCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	cs := &CameraSystem{
		config:        *config,
		lookup:        make(map[string]uint16, config.MaxCameraCount),
		cameras:       make([]*components.CameraLookup, config.MaxCameraCount),
		defaultCamera: components.NewCamera(),
	}
	for i := uint16(0); i < config.MaxCameraCount; i++ {
		cs.cameras[i] = &components.CameraLookup{ID: loaders.InvalidIDUint16}
	}

	return cs, nil
}

func (cs *CameraSystem) Shutdown() error {
	return nil
}

/**
 * Acquire returns the named camera, creating and registering a new one the
 * first time it's requested. The internal reference counter is incremented.
 */
func (cs *CameraSystem) Acquire(name string) (*components.Camera, error) {
	if name == components.DEFAULT_CAMERA_NAME {
		return cs.defaultCamera, nil
	}

	if id, ok := cs.lookup[name]; ok {
		cs.cameras[id].ReferenceCount++
		return cs.cameras[id].Camera, nil
	}

	freeSlot := loaders.InvalidIDUint16
	for i := uint16(0); i < cs.config.MaxCameraCount; i++ {
		if cs.cameras[i].ID == loaders.InvalidIDUint16 {
			freeSlot = i
			break
		}
	}
	if freeSlot == loaders.InvalidIDUint16 {
		err := fmt.Errorf("camera system has no free slot; increase MaxCameraCount")
		core.LogError(err.Error())
		return nil, err
	}

	core.LogDebug("Creating new camera named '%s'.", name)
	cs.cameras[freeSlot].Camera = components.NewCamera()
	cs.cameras[freeSlot].ID = freeSlot
	cs.cameras[freeSlot].ReferenceCount = 1
	cs.lookup[name] = freeSlot

	return cs.cameras[freeSlot].Camera, nil
}

/**
 * Release decrements the named camera's reference count. Once it reaches
 * zero the camera is reset and its slot freed for reuse.
 */
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		core.LogDebug("Cannot release the default camera; nothing was done.")
		return
	}
	id, ok := cs.lookup[name]
	if !ok {
		core.LogWarn("tried to release unknown camera '%s'; nothing was done", name)
		return
	}
	if cs.cameras[id].ReferenceCount > 0 {
		cs.cameras[id].ReferenceCount--
	}
	if cs.cameras[id].ReferenceCount < 1 {
		cs.cameras[id].Camera.Reset()
		cs.cameras[id].ID = loaders.InvalidIDUint16
		delete(cs.lookup, name)
	}
}

func (cs *CameraSystem) GetDefault() *components.Camera {
	return cs.defaultCamera
}
