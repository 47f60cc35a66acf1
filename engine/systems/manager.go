package systems

import (
	"fmt"
	"os"
	"runtime"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/platform"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

type SystemManager struct {
	CameraSystem     *CameraSystem
	GeometrySystem   *GeometrySystem
	JobSystem        *JobSystem
	MaterialSystem   *MaterialSystem
	MeshLoaderSystem *MeshLoaderSystem
	RenderViewSystem *RenderViewSystem
	ShaderSystem     *ShaderSystem
	TextureSystem    *TextureSystem
	ResourceSystem   *ResourceSystem
	RendererSystem   *RendererSystem
}

var (
	MaxNumberOfWorkers int = runtime.NumCPU()
)

func NewSystemManager(appName string, width, height uint32, platform *platform.Platform, cfg *core.EngineConfig) (*SystemManager, error) {
	if cfg == nil {
		cfg = core.DefaultEngineConfig()
	}

	js, err := NewJobSystem(MaxNumberOfWorkers, 25)
	if err != nil {
		return nil, err
	}

	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: cfg.MaxCameraCount,
	})
	if err != nil {
		return nil, err
	}
	assetBasePath := cfg.AssetBasePath
	if assetBasePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		assetBasePath = fmt.Sprintf("%s/assets", wd)
	}
	rs, err := NewResourceSystem(&ResourceSystemConfig{
		MaxLoaderCount: cfg.MaxLoaderCount,
		AssetBasePath:  assetBasePath,
	})
	if err != nil {
		return nil, err
	}

	renderer, err := NewRendererSystem(appName, width, height, platform, rs.Manager())
	if err != nil {
		return nil, err
	}

	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: cfg.MaxTextureCount,
	}, js, rs, renderer)
	if err != nil {
		return nil, err
	}
	ssys, err := NewShaderSystem(&ShaderSystemConfig{
		MaxShaderCount:      cfg.MaxShaderCount,
		MaxUniformCount:     cfg.MaxUniformCount,
		MaxGlobalTextures:   cfg.MaxGlobalTextures,
		MaxInstanceTextures: cfg.MaxInstanceTextures,
	}, ts, renderer)
	if err != nil {
		return nil, err
	}
	ms, err := NewMaterialSystem(&MaterialSystemConfig{
		MaxMaterialCount: cfg.MaxMaterialCount,
	}, ssys, ts, rs, renderer)
	if err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: cfg.MaxGeometryCount,
	}, ms, renderer)
	if err != nil {
		return nil, err
	}
	mls, err := NewMeshLoaderSystem(gs, rs)
	if err != nil {
		return nil, err
	}
	rvs, err := NewRenderViewSystem(RenderViewSystemConfig{
		MaxViewCount: cfg.MaxRenderViewCount,
	}, renderer)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		RendererSystem:   renderer,
		CameraSystem:     cs,
		JobSystem:        js,
		TextureSystem:    ts,
		ShaderSystem:     ssys,
		MaterialSystem:   ms,
		GeometrySystem:   gs,
		MeshLoaderSystem: mls,
		ResourceSystem:   rs,
		RenderViewSystem: rvs,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	if err := sm.RendererSystem.Initialize(sm.ShaderSystem, sm.RenderViewSystem); err != nil {
		return err
	}
	return nil
}

func (sm *SystemManager) DrawFrame(renderPacket *metadata.RenderPacket) error {
	if err := sm.RendererSystem.DrawFrame(renderPacket, sm.RenderViewSystem); err != nil {
		return err
	}
	return nil
}

func (sm *SystemManager) OnResize(width, height uint16) error {
	if err := sm.RendererSystem.OnResize(width, height); err != nil {
		return err
	}
	return nil
}

func (sm *SystemManager) RenderViewCreate(config *metadata.RenderViewConfig) error {
	if err := sm.RenderViewSystem.Create(config); err != nil {
		return fmt.Errorf("failed to create the renderview with name `%s`: %w", config.Name, err)
	}
	return nil
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.RenderViewSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.MeshLoaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.GeometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.MaterialSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ResourceSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
