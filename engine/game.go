package engine

import (
	"github.com/kilnengine/kiln/engine/renderer/metadata"
	"github.com/kilnengine/kiln/engine/systems"
)

// Game is the lifecycle callback table a host program fills in to drive the
// engine. FnInitialize, FnUpdate, FnRender and FnOnResize must be non-nil
// before ApplicationCreate is called; FnBoot and FnShutdown are optional and
// skipped when nil.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnBoot            Boot
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

// Boot runs once the platform window and system manager exist but before
// FnInitialize, giving the game a chance to register render views into
// ApplicationConfig.RenderViewConfigs.
type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Render func(packet *metadata.RenderPacket, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
