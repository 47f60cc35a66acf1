package assets

import "github.com/kilnengine/kiln/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) // `interface{}` here allows loaders to return various asset types
	Unload(*metadata.Resource) error
}
