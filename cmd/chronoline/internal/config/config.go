// Package config loads the chronoline user configuration and the
// evaluation manifests fed to the eval command.
//
// The user configuration lives under os.UserConfigDir()/chronoline/
// (override the directory with CHRONOLINE_CONFIG_DIR):
//
//	~/Library/Application Support/chronoline/   (macOS)
//	~/.config/chronoline/                       (Linux)
//	%AppData%/chronoline/                       (Windows)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "chronoline"

	// configFile is the optional user configuration file.
	configFile = "config.yaml"
)

// Config is the user configuration. Every field has a default, so a
// missing config file is not an error.
type Config struct {
	// DefaultMetric is the metric evaluated when --metric is omitted.
	DefaultMetric string `yaml:"default_metric"`

	// ScoreboardDir is the BadgerDB directory for run persistence.
	ScoreboardDir string `yaml:"scoreboard_dir"`
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	if dir := os.Getenv("CHRONOLINE_CONFIG_DIR"); dir != "" {
		return LoadFrom(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom loads the configuration from a specific directory, filling
// defaults for everything the file does not set.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{
		DefaultMetric: "diarization",
		ScoreboardDir: filepath.Join(dir, "scoreboard"),
	}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	return cfg, nil
}
