package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.WaitForGPU {
		t.Error("expected wait_for_gpu to be off by default")
	}
	if cfg.Terrain.LODCount != 4 {
		t.Errorf("expected 4 LOD levels, got %d", cfg.Terrain.LODCount)
	}
	if cfg.Terrain.MaxResident != 0 {
		t.Errorf("expected unbounded residency, got %d", cfg.Terrain.MaxResident)
	}
	if cfg.Worker.Mode != WorkerThreaded {
		t.Errorf("expected threaded worker, got %s", cfg.Worker.Mode)
	}
	if cfg.Worker.TickInterval != 16*time.Millisecond {
		t.Errorf("expected 16ms tick, got %v", cfg.Worker.TickInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  wait_for_gpu: true

terrain:
  tile_side: 64
  grid_width: 4
  grid_height: 2
  max_resident: 12
  closest_hit: true

worker:
  mode: inline
  tick_interval: 5ms

logging:
  level: "debug"
  log_file: "terrain.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.WaitForGPU {
		t.Error("expected wait_for_gpu to be true")
	}
	if cfg.Terrain.TileSide != 64 || cfg.Terrain.GridWidth != 4 || cfg.Terrain.GridHeight != 2 {
		t.Errorf("unexpected terrain layout %+v", cfg.Terrain)
	}
	if cfg.Terrain.MaxResident != 12 {
		t.Errorf("expected max_resident 12, got %d", cfg.Terrain.MaxResident)
	}
	if !cfg.Terrain.ClosestHit {
		t.Error("expected closest_hit to be true")
	}
	// Values absent from the file keep their defaults.
	if cfg.Terrain.LODCount != 4 {
		t.Errorf("expected default lod_count 4, got %d", cfg.Terrain.LODCount)
	}
	if cfg.Worker.Mode != WorkerInline {
		t.Errorf("expected inline worker, got %s", cfg.Worker.Mode)
	}
	if cfg.Worker.TickInterval != 5*time.Millisecond {
		t.Errorf("expected 5ms tick, got %v", cfg.Worker.TickInterval)
	}
	if cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("expected log file terrain.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	invalidYAML := `
terrain:
  tile_side: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grid", func(c *Config) { c.Terrain.GridWidth = 0 }},
		{"odd tile side", func(c *Config) { c.Terrain.TileSide = 30 }},
		{"tile side too small", func(c *Config) { c.Terrain.TileSide = 4; c.Terrain.LODCount = 4 }},
		{"no lods", func(c *Config) { c.Terrain.LODCount = 0 }},
		{"negative residency", func(c *Config) { c.Terrain.MaxResident = -1 }},
		{"zero tile size", func(c *Config) { c.Terrain.TileSize = 0 }},
		{"unknown mode", func(c *Config) { c.Worker.Mode = "fibers" }},
		{"zero tick", func(c *Config) { c.Worker.TickInterval = 0 }},
		{"zero buffer", func(c *Config) { c.Worker.RequestBuffer = 0 }},
		{"zero window", func(c *Config) { c.Graphics.Height = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	t.Run("inline ignores tick", func(t *testing.T) {
		cfg := Default()
		cfg.Worker.Mode = WorkerInline
		cfg.Worker.TickInterval = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("inline worker without tick should validate: %v", err)
		}
	})
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestResolvePath(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	xdg := filepath.Join(tmpDir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvPath, "")
	os.Chdir(tmpDir)

	if path := resolvePath(""); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// The user directory is searched when the working directory has nothing.
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		userFile := filepath.Join(xdg, "heightstream", FileName)
		if err := os.MkdirAll(filepath.Dir(userFile), 0755); err != nil {
			t.Fatalf("failed to create config dir: %v", err)
		}
		if err := os.WriteFile(userFile, []byte("graphics:\n  width: 640\n"), 0644); err != nil {
			t.Fatalf("failed to create user config: %v", err)
		}
		if path := resolvePath(""); path != userFile {
			t.Errorf("expected %s, got %s", userFile, path)
		}
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := resolvePath(""); path != FileName {
		t.Errorf("expected %s in the working directory to win, got %s", FileName, path)
	}

	t.Setenv(EnvPath, "/from/env.yaml")
	if path := resolvePath(""); path != "/from/env.yaml" {
		t.Errorf("expected the environment path, got %s", path)
	}

	// An explicit path is used even when it does not exist.
	if path := resolvePath("/missing/explicit.yaml"); path != "/missing/explicit.yaml" {
		t.Errorf("expected the explicit path, got %s", path)
	}
}

func TestSaveThenResolve(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("user config dir is not redirected on this OS")
	}

	cfg := Default()
	cfg.Terrain.Seed = 42
	if err := cfg.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, filepath.Join(ConfigDir(), FileName)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Terrain.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Terrain.Seed)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "inline worker flag",
			setup: func() { *flagInline = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Worker.Mode != WorkerInline {
					t.Errorf("expected inline worker, got %s", cfg.Worker.Mode)
				}
			},
			teardown: func() { *flagInline = false },
		},
		{
			name:  "grid flag",
			setup: func() { *flagGrid = 3 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.GridWidth != 3 || cfg.Terrain.GridHeight != 3 {
					t.Errorf("expected 3x3 grid, got %dx%d", cfg.Terrain.GridWidth, cfg.Terrain.GridHeight)
				}
			},
			teardown: func() { *flagGrid = 0 },
		},
		{
			name:  "max resident flag",
			setup: func() { *flagResident = 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.MaxResident != 0 {
					t.Errorf("expected max resident 0, got %d", cfg.Terrain.MaxResident)
				}
			},
			teardown: func() { *flagResident = -1 },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
terrain:
  grid_width: 6
  grid_height: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagSeed = 42
	defer func() {
		*flagConfig = ""
		*flagSeed = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Terrain.GridWidth != 6 || cfg.Terrain.GridHeight != 5 {
		t.Errorf("expected 6x5 grid from file, got %dx%d", cfg.Terrain.GridWidth, cfg.Terrain.GridHeight)
	}
	if cfg.Terrain.Seed != 42 {
		t.Errorf("expected seed 42 from flag, got %d", cfg.Terrain.Seed)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("worker:\n  mode: sometimes\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Terrain.Seed = 7
	cfg.Worker.Mode = WorkerInline
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Terrain.Seed != 7 || loaded.Worker.Mode != WorkerInline {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}
