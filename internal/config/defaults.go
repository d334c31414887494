package config

import (
	"path/filepath"
	"time"
)

// Default values applied by Load.
const (
	DefaultSourceDir     = "static"
	DefaultOutputDir     = "build"
	DefaultManifestName  = ".meta.toml"
	DefaultDebounce      = "1s"
	DefaultNotifySubject = "sitebuilder.cycles"
)

func applyDefaults(cfg *Config) {
	if cfg.Source.Dir == "" {
		cfg.Source.Dir = DefaultSourceDir
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
}

// ManifestPath resolves the manifest location, defaulting into the source dir.
func (c *Config) ManifestPath() string {
	if c.Manifest.Path != "" {
		return c.Manifest.Path
	}
	return filepath.Join(c.Source.Dir, DefaultManifestName)
}

// DebounceDuration parses watch.debounce. Validate guarantees it parses.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return time.Second
	}
	return d
}
