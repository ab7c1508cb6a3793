// Package config handles viewer configuration loading and management.
package config

import "time"

// Worker execution modes.
const (
	WorkerThreaded = "threaded"
	WorkerInline   = "inline"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // Vertical field of view in degrees

	// WaitForGPU blocks on the GPU after every frame. Diagnostic only.
	WaitForGPU bool `yaml:"wait_for_gpu"`

	// EnablePickReadback turns the cursor pick buffer on. Some drivers have
	// very slow mapped reads.
	EnablePickReadback bool `yaml:"enable_pick_readback"`

	ShowLOD bool `yaml:"show_lod"` // Tint tiles by resolution tier

	CaptureDir string `yaml:"capture_dir"` // Where F12 frames and F11 tile dumps go
}

// TerrainConfig holds the tile cache layout.
type TerrainConfig struct {
	TileSide    int     `yaml:"tile_side"`    // Quads per tile side at LOD 0 (power of two)
	GridWidth   int     `yaml:"grid_width"`   // Tiles in X
	GridHeight  int     `yaml:"grid_height"`  // Tiles in Y
	TileSize    float32 `yaml:"tile_size"`    // World units covered by one tile side
	LODCount    int     `yaml:"lod_count"`    // Resolution tiers per tile
	MaxResident int     `yaml:"max_resident"` // Available slots kept before eviction, 0 = unbounded
	Seed        int64   `yaml:"seed"`
	ClosestHit  bool    `yaml:"closest_hit"` // Pick the nearest hit instead of the first
}

// WorkerConfig holds the background terrain worker settings.
type WorkerConfig struct {
	Mode              string        `yaml:"mode"` // "threaded" or "inline"
	TickInterval      time.Duration `yaml:"tick_interval"`
	RequestBuffer     int           `yaml:"request_buffer"`
	ResponseBuffer    int           `yaml:"response_buffer"`
	MaxAnts           int           `yaml:"max_ants"`
	PointLightSpacing int           `yaml:"point_light_spacing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:              1280,
			Height:             720,
			Fullscreen:         false,
			VSync:              true,
			FOV:                45,
			WaitForGPU:         false,
			EnablePickReadback: true,
			ShowLOD:            false,
			CaptureDir:         "captures",
		},
		Terrain: TerrainConfig{
			TileSide:    32,
			GridWidth:   8,
			GridHeight:  8,
			TileSize:    32,
			LODCount:    4,
			MaxResident: 0,
			Seed:        1,
		},
		Worker: WorkerConfig{
			Mode:              WorkerThreaded,
			TickInterval:      16 * time.Millisecond,
			RequestBuffer:     256,
			ResponseBuffer:    256,
			MaxAnts:           64,
			PointLightSpacing: 10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
