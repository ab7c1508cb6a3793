package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagInline   = flag.Bool("inline-worker", false, "Run the terrain worker inline with the frame loop")
	flagWaitGPU  = flag.Bool("wait-gpu", false, "Wait for the GPU after every frame (diagnostic)")
	flagGrid     = flag.Int("grid", 0, "Square terrain grid size in tiles")
	flagSeed     = flag.Int64("seed", 0, "Terrain noise seed")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file as well")
	flagClosest  = flag.Bool("closest-hit", false, "Pick the nearest terrain hit instead of the first")
	flagResident = flag.Int("max-resident", -1, "Resident tile slots before eviction (0 = unbounded)")
	flagShowLOD  = flag.Bool("show-lod", false, "Tint tiles by level of detail")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagInline {
		cfg.Worker.Mode = WorkerInline
	}
	if *flagWaitGPU {
		cfg.Graphics.WaitForGPU = true
	}
	if *flagGrid > 0 {
		cfg.Terrain.GridWidth = *flagGrid
		cfg.Terrain.GridHeight = *flagGrid
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagClosest {
		cfg.Terrain.ClosestHit = true
	}
	if *flagShowLOD {
		cfg.Graphics.ShowLOD = true
	}
	if *flagResident >= 0 {
		cfg.Terrain.MaxResident = *flagResident
	}
}
