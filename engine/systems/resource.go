package systems

import (
	"fmt"

	"github.com/kilnengine/kiln/engine/assets"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

/** @brief The configuration for the resource system. */
type ResourceSystemConfig struct {
	/** @brief The maximum number of loaders that can be registered with this system. */
	MaxLoaderCount uint32
	/** @brief The relative base path for assets. */
	AssetBasePath string
}

/**
 * @brief Front-end for asset loading. Wraps an fsnotify-backed
 * AssetManager whose file index follows files added, changed or
 * removed on disk; resources already loaded are not reloaded.
 */
type ResourceSystem struct {
	config  ResourceSystemConfig
	manager *assets.AssetManager
}

func NewResourceSystem(config *ResourceSystemConfig) (*ResourceSystem, error) {
	if config.MaxLoaderCount == 0 {
		err := fmt.Errorf("failed to create resource system because config.MaxLoaderCount==0")
		core.LogError(err.Error())
		return nil, err
	}

	manager, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}
	if err := manager.Initialize(config.AssetBasePath); err != nil {
		return nil, err
	}

	core.LogInfo("Resource system initialized with base path '%s'.", config.AssetBasePath)

	return &ResourceSystem{
		config:  *config,
		manager: manager,
	}, nil
}

func (rs *ResourceSystem) Shutdown() error {
	return nil
}

func (rs *ResourceSystem) Load(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	return rs.manager.LoadAsset(name, resourceType, params)
}

func (rs *ResourceSystem) Unload(resource *metadata.Resource) error {
	return rs.manager.UnloadAsset(resource)
}

func (rs *ResourceSystem) BasePath() string {
	return rs.config.AssetBasePath
}

func (rs *ResourceSystem) Manager() *assets.AssetManager {
	return rs.manager
}
