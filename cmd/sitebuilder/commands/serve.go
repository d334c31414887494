package commands

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/server"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Output string `arg:"" optional:"" help:"Output directory (overrides output.dir)"`
	Listen string `arg:"" optional:"" name:"listen-addr" help:"Serve the output directory on this address, e.g. :8080"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	outRoot := cfg.Output.Dir
	if s.Output != "" {
		outRoot = s.Output
	}

	withMetrics := s.Listen != "" || cfg.Metrics.Listen != ""
	a, err := newApp(cfg, outRoot, withMetrics, g.Logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var servers []*server.Server
	if s.Listen != "" {
		servers = append(servers, server.New(s.Listen, outRoot, a.registry, g.Logger))
	}
	if cfg.Metrics.Listen != "" && cfg.Metrics.Listen != s.Listen {
		servers = append(servers, server.New(cfg.Metrics.Listen, "", a.registry, g.Logger))
	}
	for _, srv := range servers {
		if err := srv.Start(ctx); err != nil {
			stopServers(servers, g.Logger)
			return err
		}
	}
	defer stopServers(servers, g.Logger)

	return RunServe(ctx, a, g.Logger)
}

// RunServe watches the source directory and the optional rebuild schedule,
// feeding both into the watch loop until ctx ends or the watcher fails.
func RunServe(ctx context.Context, a *app, logger *slog.Logger) error {
	var (
		scheduler *watch.Scheduler
		err       error
	)
	if expr := a.cfg.Watch.FullRebuildSchedule; expr != "" {
		scheduler, err = watch.NewScheduler(expr, logger)
		if err != nil {
			return ferrors.ConfigError("invalid watch.full_rebuild_schedule").
				WithCause(err).
				WithContext("value", expr).
				Build()
		}
	}

	source, err := watch.NewSource(a.cfg.Source.Dir, a.cfg.DebounceDuration(), logger)
	if err != nil {
		if scheduler != nil {
			_ = scheduler.Stop()
		}
		return ferrors.WatcherError("failed to watch source directory").
			WithCause(err).
			WithContext("dir", a.cfg.Source.Dir).
			Build()
	}

	inputs := []<-chan watch.Event{source.Events()}
	if scheduler != nil {
		inputs = append(inputs, scheduler.Events())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return source.Run(gctx) })
	if scheduler != nil {
		scheduler.Start()
		g.Go(func() error {
			<-gctx.Done()
			return scheduler.Stop()
		})
	}

	loop := watch.NewLoop(a.cycle, logger)
	logger.Info("Watching for changes",
		logfields.Dir(a.cfg.Source.Dir),
		slog.Duration("debounce", a.cfg.DebounceDuration()))
	loopErr := loop.Run(gctx, watch.Merge(gctx, inputs...))
	cancel()

	if err := g.Wait(); err != nil && loopErr == nil && !errors.Is(err, context.Canceled) {
		loopErr = ferrors.WatcherError("watcher stopped").WithCause(err).Build()
	}
	return loopErr
}

func stopServers(servers []*server.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Stop(ctx); err != nil {
			logger.Warn("Failed to stop HTTP server", logfields.Addr(srv.Addr()), logfields.Error(err))
		}
	}
}
