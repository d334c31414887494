// Package config loads the sitebuilder YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "sitebuilder.yaml"

// Config is the complete sitebuilder configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Manifest ManifestConfig `yaml:"manifest,omitempty"`
	Site     SiteConfig     `yaml:"site"`
	Watch    WatchConfig    `yaml:"watch"`
	Build    BuildConfig    `yaml:"build,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
}

// SourceConfig locates the content directory.
type SourceConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig locates the generated site.
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean,omitempty"` // wipe the output dir before a one-shot build
}

// ManifestConfig locates the timing manifest.
type ManifestConfig struct {
	Path         string `yaml:"path,omitempty"`          // defaults to <source>/.meta.toml
	WriteRetries int    `yaml:"write_retries,omitempty"` // extra save attempts with exponential backoff
}

// SiteConfig holds page metadata shared by every rendered page.
type SiteConfig struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle,omitempty"`
	BrowserTitle string `yaml:"browser_title,omitempty"`
	Description  string `yaml:"description,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	SiteName     string `yaml:"site_name,omitempty"`
	OGImage      string `yaml:"og_image,omitempty"`
	Author       string `yaml:"author,omitempty"`
}

// WatchConfig tunes serve mode.
type WatchConfig struct {
	Debounce            string `yaml:"debounce"`                        // duration string, e.g. "1s"
	FullRebuildSchedule string `yaml:"full_rebuild_schedule,omitempty"` // cron expression; empty disables
}

// BuildConfig tunes the dispatcher.
type BuildConfig struct {
	Workers int `yaml:"workers,omitempty"` // 0 means GOMAXPROCS
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// HistoryConfig enables the SQLite cycle log.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig enables NATS cycle notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads configPath, applies defaults and validates the result.
// A missing file is not an error: the defaults are returned.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				WithContext("path", configPath).
				Build()
		}
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles populates the process environment from .env.local and .env.
// Variables already set win; .env.local wins over .env.
func loadEnvFiles() {
	var present []string
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return
	}
	if err := godotenv.Load(present...); err != nil {
		fmt.Fprintf(os.Stderr, "Note: could not load %v: %v\n", present, err)
	}
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			UserAction().
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.FileSystemError("failed to create config directory").WithCause(err).Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example is the configuration written by Init.
func Example() *Config {
	return &Config{
		Source: SourceConfig{Dir: DefaultSourceDir},
		Output: OutputConfig{Dir: DefaultOutputDir},
		Site: SiteConfig{
			Title:        "My Site",
			Subtitle:     "Notes and photos",
			BrowserTitle: "My Site",
			Description:  "A personal blog",
			BaseURL:      "https://example.com",
			SiteName:     "example.com",
		},
		Watch: WatchConfig{
			Debounce:            DefaultDebounce,
			FullRebuildSchedule: "0 3 * * *",
		},
		Notify: NotifyConfig{Subject: DefaultNotifySubject},
	}
}
