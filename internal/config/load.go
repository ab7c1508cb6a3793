package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file the viewer looks for when no path is given.
const FileName = "terrainview.yaml"

// EnvPath names an environment variable holding a config path. It sits
// between the -config flag and the search directories.
const EnvPath = "HEIGHTSTREAM_CONFIG"

// Load builds the viewer config: defaults, then the first config file
// found, then command-line overrides. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := resolvePath(ConfigPath()); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePath picks the config file. An explicit path always wins, even if
// it does not exist, so a typo fails loudly instead of falling back.
func resolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	for _, dir := range searchDirs() {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// searchDirs lists where a terrainview.yaml is looked for: the working
// directory, then the per-user config directory.
func searchDirs() []string {
	return []string{".", ConfigDir()}
}

// ConfigDir returns the per-user directory for viewer settings.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "heightstream")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "heightstream")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "heightstream")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "heightstream")
	}
}

// loadFromFile overlays a YAML file on cfg. Keys absent from the file keep
// their current values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
