package commands

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/convert"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg      *config.Config
	cycle    *site.Cycle
	registry *prometheus.Registry
	closers  []func() error
	logger   *slog.Logger
}

// newApp wires renderer, converters, dispatcher and the optional history,
// notification and metrics sinks into a cycle runner for outRoot.
func newApp(cfg *config.Config, outRoot string, withMetrics bool, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	renderer, err := render.New(siteMeta(cfg.Site))
	if err != nil {
		return nil, ferrors.InternalError("failed to parse page templates").WithCause(err).Build()
	}
	minifier := render.NewMinifier()

	converters := build.Converters{
		Article: convert.NewArticles(convert.NewMarkdown(""), renderer, minifier, logger),
		Photo:   convert.NewPhotos(convert.JPEGCodec{}, logger),
		Style:   convert.NewStyles(convert.CSSCompiler{Minifier: minifier}, logger),
		Script:  convert.NewScripts(minifier, logger),
		Icon:    convert.NewIcons(logger),
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if withMetrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(a.registry)
	}

	dispatcher := build.NewDispatcher(converters, renderer, minifier,
		build.WithWorkers(cfg.Build.Workers),
		build.WithRecorder(recorder),
		build.WithLogger(logger),
	)

	opts := []site.Option{site.WithRecorder(recorder), site.WithLogger(logger)}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			a.Close()
			return nil, ferrors.StorageError("failed to open build history").
				WithCause(err).
				WithContext("path", cfg.History.Path).
				Build()
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts, site.WithHistory(store))
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject, logger)
		if err != nil {
			a.Close()
			return nil, ferrors.MessagingError("failed to connect to NATS").
				WithCause(err).
				WithContext("url", cfg.Notify.NATSURL).
				Build()
		}
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, site.WithNotifier(pub))
	}

	if n := cfg.Manifest.WriteRetries; n > 0 {
		d := retry.DefaultPolicy()
		opts = append(opts, site.WithPersistRetry(retry.NewPolicy(retry.BackoffExponential, d.Initial, d.Max, n)))
	}

	a.cycle = site.NewCycle(site.Paths{
		Source:   cfg.Source.Dir,
		Output:   outRoot,
		Manifest: cfg.ManifestPath(),
	}, dispatcher, opts...)
	return a, nil
}

// Close releases history and notification connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", logfields.Error(err))
		}
	}
	a.closers = nil
}

func siteMeta(s config.SiteConfig) render.Site {
	return render.Site{
		Title:        s.Title,
		Subtitle:     s.Subtitle,
		BrowserTitle: s.BrowserTitle,
		Description:  s.Description,
		BaseURL:      s.BaseURL,
		SiteName:     s.SiteName,
		OGImage:      s.OGImage,
		Author:       s.Author,
	}
}
