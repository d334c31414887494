package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/convert"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/registry"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// Converter produces every output of one resource under outRoot.
type Converter interface {
	Convert(ctx context.Context, res resource.Resource, outRoot string) error
}

// Converters holds exactly one converter per resource kind.
type Converters struct {
	Article Converter
	Photo   Converter
	Style   Converter
	Script  Converter
	Icon    Converter
}

// For returns the converter for kind.
func (c Converters) For(kind resource.Kind) (Converter, error) {
	var conv Converter
	switch kind {
	case resource.Article:
		conv = c.Article
	case resource.Photo:
		conv = c.Photo
	case resource.Style:
		conv = c.Style
	case resource.Script:
		conv = c.Script
	case resource.Icon:
		conv = c.Icon
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConverter, kind)
	}
	return conv, nil
}

// PageRenderer renders the aggregate pages.
type PageRenderer interface {
	Index(entries []render.ArticleEntry) ([]byte, error)
	Gallery(entries []render.PhotoEntry) ([]byte, error)
	Static(name string) ([]byte, error)
}

// HTMLMinifier compresses rendered pages.
type HTMLMinifier interface {
	HTML(page []byte) ([]byte, error)
}

// Result summarizes one Build call.
type Result struct {
	Selected  int
	Succeeded int
	Failed    int
	// Processed lists the keys of selected resources in registry order.
	Processed []string
	Duration  time.Duration
}

// Dispatcher selects, converts and aggregates.
type Dispatcher struct {
	converters Converters
	pages      PageRenderer
	minifier   HTMLMinifier
	workers    int
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers bounds the number of concurrent units. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) { d.workers = n }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(converters Converters, pages PageRenderer, minifier HTMLMinifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		converters: converters,
		pages:      pages,
		minifier:   minifier,
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	return d
}

// Selected reports whether res needs a conversion: it changed, force is set,
// or any of its outputs is missing under outRoot.
func Selected(res resource.Resource, outRoot string, force bool) bool {
	return res.Changed || force || !res.OutputsExist(outRoot)
}

// Build runs one dispatch over reg into outRoot.
//
// Output directories are created first; failing that aborts the build before
// any unit runs. Selected resources are then converted concurrently. After
// every unit has finished the index, gallery, about and 404 pages are written
// from the full registry, also when some units failed. The returned error
// wraps *Failures when any unit or page failed.
func (d *Dispatcher) Build(ctx context.Context, reg *registry.Registry, outRoot string, force bool) (Result, error) {
	start := time.Now()
	var res Result

	if err := ensureDirs(outRoot); err != nil {
		return res, err
	}

	var selected []resource.Resource
	for _, r := range reg.Resources() {
		if Selected(r, outRoot, force) {
			selected = append(selected, r)
			res.Processed = append(res.Processed, r.Key())
		}
	}
	res.Selected = len(selected)
	d.recorder.SetSelected(res.Selected)
	d.logger.Info("Dispatching resources",
		logfields.Count(res.Selected),
		slog.Int("total", reg.Len()),
		logfields.Force(force))

	failures := &Failures{}
	results := runAll(ctx, selected, d.workers, d.convert(outRoot))
	for i, r := range results {
		if r.Err != nil {
			failures.add(selected[i].Name, selected[i].Kind, r.Err)
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	d.aggregate(reg, outRoot, failures)

	res.Duration = time.Since(start)
	if len(failures.Errors) > 0 {
		return res, ferrors.ConversionError("build completed with failures").
			WithCause(failures).
			WithContext("failed", len(failures.Errors)).
			Build()
	}
	return res, nil
}

func (d *Dispatcher) convert(outRoot string) func(context.Context, resource.Resource) (struct{}, error) {
	return func(ctx context.Context, r resource.Resource) (struct{}, error) {
		kind := r.Kind.String()
		conv, err := d.converters.For(r.Kind)
		if err != nil {
			d.recorder.IncUnitResult(kind, metrics.ResultFailed)
			return struct{}{}, err
		}

		start := time.Now()
		err = conv.Convert(ctx, r, outRoot)
		d.recorder.ObserveUnitDuration(kind, time.Since(start))
		if err != nil {
			result := metrics.ResultFailed
			if errors.Is(err, context.Canceled) {
				result = metrics.ResultCanceled
			}
			d.recorder.IncUnitResult(kind, result)
			d.logger.Error("Resource conversion failed",
				logfields.Resource(r.Name),
				logfields.Kind(kind),
				logfields.Path(r.Path),
				logfields.Error(err))
			return struct{}{}, err
		}
		d.recorder.IncUnitResult(kind, metrics.ResultSuccess)
		return struct{}{}, nil
	}
}

// aggregate writes the listing and static pages. It reads only registry
// metadata, never resource outputs.
func (d *Dispatcher) aggregate(reg *registry.Registry, outRoot string, failures *Failures) {
	articles := reg.OfKind(resource.Article)
	entries := make([]render.ArticleEntry, 0, len(articles))
	for _, a := range articles {
		entries = append(entries, render.ArticleEntry{
			Link:    resource.ArticleLink(a.Name),
			Title:   convert.TitleFromName(a.Name),
			Created: a.Timing.Created,
		})
	}
	d.writePage(outRoot, resource.IndexPage, failures, func() ([]byte, error) {
		return d.pages.Index(entries)
	})

	photos := reg.OfKind(resource.Photo)
	tiles := make([]render.PhotoEntry, 0, len(photos))
	for _, p := range photos {
		tiles = append(tiles, render.PhotoEntry{
			Preview: resource.ThumbnailLink(p.Name),
			Image:   resource.ImageLink(p.Name),
			Label:   p.Name,
		})
	}
	d.writePage(outRoot, resource.GalleryPage, failures, func() ([]byte, error) {
		return d.pages.Gallery(tiles)
	})

	d.writePage(outRoot, resource.AboutPage, failures, func() ([]byte, error) {
		return d.pages.Static(render.PageAbout)
	})
	d.writePage(outRoot, resource.NotFoundPage, failures, func() ([]byte, error) {
		return d.pages.Static(render.PageNotFound)
	})
}

func (d *Dispatcher) writePage(outRoot, file string, failures *Failures, renderPage func() ([]byte, error)) {
	page, err := renderPage()
	if err == nil {
		page, err = d.minifier.HTML(page)
	}
	if err == nil {
		path := filepath.Join(outRoot, file)
		d.logger.Info("Writing page", logfields.Path(path))
		err = os.WriteFile(path, page, 0o644) // #nosec G306 -- published site content
	}
	if err != nil {
		d.logger.Error("Page write failed", logfields.Path(file), logfields.Error(err))
		failures.add(file, 0, err)
	}
}

func ensureDirs(outRoot string) error {
	dirs := []string{outRoot}
	for _, sub := range resource.OutputDirs {
		dirs = append(dirs, filepath.Join(outRoot, sub))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.FileSystemError("failed to create output directory").
				WithCause(err).
				WithContext("dir", dir).
				Build()
		}
	}
	return nil
}
