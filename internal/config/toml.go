// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Run    RunConfig    `toml:"run"`
	Export ExportConfig `toml:"export"`
}

// RunConfig maps run screen defaults.
type RunConfig struct {
	Shooter     *string `toml:"shooter"`
	Drill       *string `toml:"drill"`
	ReloadAfter *int    `toml:"reload-after"`
	Vest        *bool   `toml:"vest"`
	WithRun     *bool   `toml:"with-run"`
	RefreshMs   *int    `toml:"refresh-ms"`
}

// ExportConfig maps CSV export settings.
type ExportConfig struct {
	Dir *string `toml:"dir"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if cfg.Run.RefreshMs != nil && *cfg.Run.RefreshMs <= 0 {
		return FileConfig{}, fmt.Errorf("run.refresh-ms must be > 0")
	}
	return cfg, nil
}
