// Package config loads the host's startup configuration from a YAML file,
// with in-code defaults for every field so a missing or partial file still
// produces a runnable configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level host configuration.
type Config struct {
	SampleRate  float64 `yaml:"sample_rate"`
	PartCount   int     `yaml:"part_count"`
	SamplesDir  string  `yaml:"samples_dir"`
	DrumsDir    string  `yaml:"drums_dir"`
	ControlAddr string  `yaml:"control_addr"`
	LogLevel    string  `yaml:"log_level"`
	LogFile     string  `yaml:"log_file"`
}

// Default returns the built-in configuration used when no file is given or
// a field is absent from it.
func Default() Config {
	return Config{
		SampleRate:  48000,
		PartCount:   16,
		SamplesDir:  "documents/subsamples",
		DrumsDir:    "documents/Drums",
		ControlAddr: "",
		LogLevel:    "info",
		LogFile:     "",
	}
}

// Load reads and parses a YAML config file, applying its fields over
// Default() for anything the file leaves unset (zero-valued).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	applyOverlay(&cfg, overlay)
	return cfg, nil
}

func applyOverlay(cfg *Config, overlay Config) {
	if overlay.SampleRate != 0 {
		cfg.SampleRate = overlay.SampleRate
	}
	if overlay.PartCount != 0 {
		cfg.PartCount = overlay.PartCount
	}
	if overlay.SamplesDir != "" {
		cfg.SamplesDir = overlay.SamplesDir
	}
	if overlay.DrumsDir != "" {
		cfg.DrumsDir = overlay.DrumsDir
	}
	if overlay.ControlAddr != "" {
		cfg.ControlAddr = overlay.ControlAddr
	}
	if overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != "" {
		cfg.LogFile = overlay.LogFile
	}
}
