package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`
	Source   string           `short:"s" help:"Source content directory (overrides source.dir)"`
	Metadata string           `short:"m" help:"Manifest file path (overrides manifest.path)"`

	Build   BuildCmd   `cmd:"" help:"Build the site once, converting only what changed"`
	Serve   ServeCmd   `cmd:"" help:"Build, then rebuild on every change to the source directory"`
	History HistoryCmd `cmd:"" help:"Show recent build cycles"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := parseLogLevel(c.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// parseLogLevel honours --verbose first, then SITEBUILDER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("SITEBUILDER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads the configuration and applies the global flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Source != "" {
		cfg.Source.Dir = c.Source
	}
	if c.Metadata != "" {
		cfg.Manifest.Path = c.Metadata
	}
	return cfg, nil
}
