package core

import (
	"errors"
)

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrUnknown          = errors.New("unknown")

	// ErrMeshResourceEmpty describes a model resource that parses without
	// error but yields zero geometry configs. No function in the engine
	// currently returns it.
	ErrMeshResourceEmpty = errors.New("mesh resource contains no geometry data")
	// ErrRenderViewNotFound describes a render view name the render view
	// system never created. No function in the engine returns it.
	ErrRenderViewNotFound = errors.New("render view not found")
	// ErrConfigNotFound describes an absent optional on-disk config file.
	// No function in the engine returns it; LoadEngineConfig falls
	// back to defaults without an error.
	ErrConfigNotFound = errors.New("config file not found")
)
