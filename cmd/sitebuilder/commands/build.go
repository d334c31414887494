package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string `arg:"" optional:"" help:"Output directory (overrides output.dir)"`
	Clean   bool   `help:"Remove the output directory before building"`
	NoCache bool   `name:"no-cache" help:"Ignore the manifest and rebuild every resource"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	outRoot := cfg.Output.Dir
	if b.Output != "" {
		outRoot = b.Output
	}

	a, err := newApp(cfg, outRoot, false, g.Logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, a.cycle, site.OnceOptions{Force: b.NoCache, Clean: b.Clean || cfg.Output.Clean})
}

// RunBuild performs one build cycle and reports the outcome on stdout.
func RunBuild(ctx context.Context, cycle *site.Cycle, opts site.OnceOptions) error {
	paths := cycle.Paths()
	fmt.Printf("Building %s -> %s\n", paths.Source, paths.Output)

	report, err := cycle.BuildOnce(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d of %d resources in %s\n",
		report.Build.Succeeded, report.Scanned, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return nil
}
