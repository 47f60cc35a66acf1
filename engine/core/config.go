package core

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// EngineConfig holds the pool sizes and defaults NewSystemManager previously
// hardcoded. A missing engine.toml is not an error: the engine must be able
// to boot with zero configuration on disk.
type EngineConfig struct {
	AssetBasePath string   `toml:"asset_base_path"`
	LogLevel      LogLevel `toml:"-"`

	MaxLoaderCount      uint32 `toml:"max_loader_count"`
	MaxTextureCount     uint32 `toml:"max_texture_count"`
	MaxMaterialCount    uint32 `toml:"max_material_count"`
	MaxGeometryCount    uint32 `toml:"max_geometry_count"`
	MaxShaderCount      uint16 `toml:"max_shader_count"`
	MaxCameraCount      uint16 `toml:"max_camera_count"`
	MaxRenderViewCount  uint16 `toml:"max_render_view_count"`
	MaxUniformCount     uint8  `toml:"max_uniform_count"`
	MaxGlobalTextures   uint8  `toml:"max_global_textures"`
	MaxInstanceTextures uint8  `toml:"max_instance_textures"`
}

type rawEngineConfig struct {
	AssetBasePath       string `toml:"asset_base_path"`
	LogLevel            string `toml:"log_level"`
	MaxLoaderCount      uint32 `toml:"max_loader_count"`
	MaxTextureCount     uint32 `toml:"max_texture_count"`
	MaxMaterialCount    uint32 `toml:"max_material_count"`
	MaxGeometryCount    uint32 `toml:"max_geometry_count"`
	MaxShaderCount      uint16 `toml:"max_shader_count"`
	MaxCameraCount      uint16 `toml:"max_camera_count"`
	MaxRenderViewCount  uint16 `toml:"max_render_view_count"`
	MaxUniformCount     uint8  `toml:"max_uniform_count"`
	MaxGlobalTextures   uint8  `toml:"max_global_textures"`
	MaxInstanceTextures uint8  `toml:"max_instance_textures"`
}

// DefaultEngineConfig mirrors the pool sizes NewSystemManager used to wire
// directly as literals.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		LogLevel:            InfoLevel,
		MaxLoaderCount:      32,
		MaxTextureCount:     65536,
		MaxMaterialCount:    4096,
		MaxGeometryCount:    4096,
		MaxShaderCount:      1024,
		MaxCameraCount:      61,
		MaxRenderViewCount:  251,
		MaxUniformCount:     128,
		MaxGlobalTextures:   31,
		MaxInstanceTextures: 31,
	}
}

// LoadEngineConfig reads an optional engine.toml from path, falling back to
// DefaultEngineConfig for any field the file omits or when the file itself
// is absent.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := DefaultEngineConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var raw rawEngineConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.AssetBasePath != "" {
		cfg.AssetBasePath = raw.AssetBasePath
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(raw.LogLevel)
	}
	overrideUint32(&cfg.MaxLoaderCount, raw.MaxLoaderCount)
	overrideUint32(&cfg.MaxTextureCount, raw.MaxTextureCount)
	overrideUint32(&cfg.MaxMaterialCount, raw.MaxMaterialCount)
	overrideUint32(&cfg.MaxGeometryCount, raw.MaxGeometryCount)
	overrideUint16(&cfg.MaxShaderCount, raw.MaxShaderCount)
	overrideUint16(&cfg.MaxCameraCount, raw.MaxCameraCount)
	overrideUint16(&cfg.MaxRenderViewCount, raw.MaxRenderViewCount)
	overrideUint8(&cfg.MaxUniformCount, raw.MaxUniformCount)
	overrideUint8(&cfg.MaxGlobalTextures, raw.MaxGlobalTextures)
	overrideUint8(&cfg.MaxInstanceTextures, raw.MaxInstanceTextures)

	return cfg, nil
}

func overrideUint32(dst *uint32, v uint32) {
	if v != 0 {
		*dst = v
	}
}

func overrideUint16(dst *uint16, v uint16) {
	if v != 0 {
		*dst = v
	}
}

func overrideUint8(dst *uint8, v uint8) {
	if v != 0 {
		*dst = v
	}
}

func parseLogLevel(s string) LogLevel {
	switch s {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}
