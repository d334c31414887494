// Package site runs build cycles: scan the source directory against the
// previous manifest, dispatch the build, and persist the next manifest when
// it differs.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/registry"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// Trigger values recorded per cycle.
const (
	TriggerBuild     = "build"
	TriggerInitial   = "initial"
	TriggerWatch     = "watch"
	TriggerScheduled = "scheduled"
)

// Builder dispatches one build over a registry.
type Builder interface {
	Build(ctx context.Context, reg *registry.Registry, outRoot string, force bool) (build.Result, error)
}

// HistoryRecorder stores completed cycles.
type HistoryRecorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Paths locates the source tree, output tree and manifest file.
type Paths struct {
	Source   string
	Output   string
	Manifest string
}

// RunOptions controls one cycle.
type RunOptions struct {
	Force   bool
	Trigger string
	// Clean removes the output directory after a successful scan and before
	// the build writes anything.
	Clean bool
}

// Report describes one finished cycle.
type Report struct {
	ID         string
	Trigger    string
	Force      bool
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Build      build.Result
	// Next is the manifest derived from this cycle's scan. It is nil when the
	// scan failed.
	Next            *manifest.Manifest
	ManifestChanged bool
	ManifestWritten bool
	Status          string
	Err             error
}

// Succeeded reports whether scan and build both completed without failures.
// A persistence failure does not count: the build output is complete.
func (r Report) Succeeded() bool {
	return r.Next != nil && (r.Err == nil || ferrors.HasCategory(r.Err, ferrors.CategoryPersistence))
}

// Cycle runs build cycles. Only one cycle may run at a time per Cycle.
type Cycle struct {
	paths    Paths
	builder  Builder
	history  HistoryRecorder
	notifier notify.Publisher
	recorder metrics.Recorder
	logger   *slog.Logger
	retry    retry.Policy
	now      func() time.Time
}

// Option configures a Cycle.
type Option func(*Cycle)

func WithHistory(h HistoryRecorder) Option { return func(c *Cycle) { c.history = h } }

func WithNotifier(p notify.Publisher) Option {
	return func(c *Cycle) {
		if p != nil {
			c.notifier = p
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *Cycle) {
		if r != nil {
			c.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cycle) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPersistRetry sets the backoff for manifest writes. Without it a
// failed write is reported after one attempt.
func WithPersistRetry(p retry.Policy) Option { return func(c *Cycle) { c.retry = p } }

// NewCycle creates a cycle runner.
func NewCycle(paths Paths, builder Builder, opts ...Option) *Cycle {
	c := &Cycle{
		paths:    paths,
		builder:  builder,
		notifier: notify.Noop{},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		retry:    retry.NewPolicy(retry.BackoffFixed, 0, 0, 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Paths returns the configured locations.
func (c *Cycle) Paths() Paths { return c.paths }

// LoadManifest reads the persisted manifest, degrading to an empty one.
func (c *Cycle) LoadManifest() *manifest.Manifest {
	return manifest.LoadOrEmpty(c.paths.Manifest, c.logger)
}

// Run performs scan, build and persist against prev.
//
// A scan failure aborts before any output is written. A build with unit
// failures returns the aggregate error and never persists. A manifest write
// failure returns a persistence error while Report.Next still holds the new
// manifest; the caller decides whether that is fatal.
func (c *Cycle) Run(ctx context.Context, prev *manifest.Manifest, opts RunOptions) (Report, error) {
	report := Report{
		ID:        uuid.NewString(),
		Trigger:   opts.Trigger,
		Force:     opts.Force,
		StartedAt: c.now(),
	}
	logger := c.logger.With(logfields.CycleID(report.ID), logfields.Trigger(opts.Trigger))
	logger.Info("Starting build cycle", logfields.Force(opts.Force))

	err := c.run(ctx, prev, opts, logger, &report)
	report.Err = err
	report.FinishedAt = c.now()
	report.Status = status(report)

	c.finish(ctx, report, logger)
	return report, err
}

func (c *Cycle) run(ctx context.Context, prev *manifest.Manifest, opts RunOptions, logger *slog.Logger, report *Report) error {
	reg, err := registry.Scan(c.paths.Source, prev, logger)
	if err != nil {
		return err
	}
	report.Scanned = reg.Len()

	if opts.Clean {
		if err := c.clean(); err != nil {
			return err
		}
	}

	result, err := c.builder.Build(ctx, reg, c.paths.Output, opts.Force)
	report.Build = result
	if err != nil {
		return err
	}

	report.Next = reg.Timings()
	report.ManifestChanged = !report.Next.Equal(prev)
	written, err := c.persist(ctx, report.Next, report.ManifestChanged, logger)
	report.ManifestWritten = written
	return err
}

// persist writes next when changed is set, retrying transient failures.
func (c *Cycle) persist(ctx context.Context, next *manifest.Manifest, changed bool, logger *slog.Logger) (bool, error) {
	if !changed {
		c.recorder.IncManifestWrite(metrics.ResultSkipped)
		logger.Debug("Manifest unchanged, not writing", logfields.Path(c.paths.Manifest))
		return false, nil
	}
	save := func() error { return next.Save(c.paths.Manifest) }
	onRetry := func(attempt int, err error) {
		logger.Warn("Manifest write failed, retrying", slog.Int("attempt", attempt), logfields.Error(err))
	}
	if err := c.retry.Do(ctx, save, onRetry); err != nil {
		c.recorder.IncManifestWrite(metrics.ResultFailed)
		return false, ferrors.PersistenceError("failed to write manifest").
			WithCause(err).
			WithContext("path", c.paths.Manifest).
			Build()
	}
	c.recorder.IncManifestWrite(metrics.ResultSuccess)
	logger.Info("Wrote manifest", logfields.Path(c.paths.Manifest), logfields.Count(next.Len()))
	return true, nil
}

func status(r Report) string {
	switch {
	case r.Err == nil:
		return history.StatusSuccess
	case isPartial(r.Err):
		return history.StatusPartial
	default:
		return history.StatusFailed
	}
}

func isPartial(err error) bool {
	var failures *build.Failures
	return errors.As(err, &failures)
}

// finish records metrics, history and notifications. History and notifier
// failures are logged only.
func (c *Cycle) finish(ctx context.Context, r Report, logger *slog.Logger) {
	duration := r.FinishedAt.Sub(r.StartedAt)
	c.recorder.ObserveCycleDuration(duration)
	switch r.Status {
	case history.StatusSuccess:
		c.recorder.IncCycleOutcome(metrics.CycleSuccess)
	case history.StatusPartial:
		c.recorder.IncCycleOutcome(metrics.CyclePartial)
	default:
		c.recorder.IncCycleOutcome(metrics.CycleFailed)
	}

	attrs := []any{
		logfields.State(r.Status),
		slog.Int("scanned", r.Scanned),
		slog.Int("selected", r.Build.Selected),
		slog.Int("failed", r.Build.Failed),
		logfields.DurationMS(float64(duration.Microseconds()) / 1000),
	}
	if r.Err != nil {
		logger.Error("Build cycle failed", append(attrs, logfields.Error(r.Err))...)
	} else {
		logger.Info("Build cycle completed", attrs...)
	}

	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}

	if c.history != nil {
		entry := history.Entry{
			ID:              r.ID,
			Trigger:         r.Trigger,
			Force:           r.Force,
			StartedAt:       r.StartedAt,
			FinishedAt:      r.FinishedAt,
			Scanned:         r.Scanned,
			Selected:        r.Build.Selected,
			Failed:          r.Build.Failed,
			ManifestWritten: r.ManifestWritten,
			Status:          r.Status,
			Error:           errText,
		}
		if err := c.history.Record(ctx, entry); err != nil {
			logger.Warn("Failed to record cycle history", logfields.Error(err))
		}
	}

	if err := c.notifier.PublishCycle(ctx, notify.Cycle{
		ID:              r.ID,
		Trigger:         r.Trigger,
		Force:           r.Force,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Scanned:         r.Scanned,
		Selected:        r.Build.Selected,
		Succeeded:       r.Build.Succeeded,
		Failed:          r.Build.Failed,
		ManifestWritten: r.ManifestWritten,
		Status:          r.Status,
		Error:           errText,
		Processed:       r.Build.Processed,
	}); err != nil {
		logger.Warn("Failed to publish cycle notification", logfields.Error(err))
	}
}

// OnceOptions controls a one-shot build.
type OnceOptions struct {
	Force bool
	Clean bool
}

// BuildOnce loads the manifest and runs a single cycle, removing prior
// output once the scan has succeeded when Clean is set. Every failure is
// returned, including manifest persistence.
func (c *Cycle) BuildOnce(ctx context.Context, opts OnceOptions) (Report, error) {
	return c.Run(ctx, c.LoadManifest(), RunOptions{Force: opts.Force, Trigger: TriggerBuild, Clean: opts.Clean})
}

func (c *Cycle) clean() error {
	out, err := filepath.Abs(c.paths.Output)
	if err != nil {
		return ferrors.FileSystemError("failed to resolve output directory").WithCause(err).Build()
	}
	src, err := filepath.Abs(c.paths.Source)
	if err != nil {
		return ferrors.FileSystemError("failed to resolve source directory").WithCause(err).Build()
	}
	if out == src || strings.HasPrefix(src+string(filepath.Separator), out+string(filepath.Separator)) {
		return ferrors.ValidationError("refusing to clean an output directory that contains the source directory").
			WithContext("output", out).
			WithContext("source", src).
			Build()
	}

	c.logger.Info("Removing previous output", logfields.Dir(out))
	if err := os.RemoveAll(out); err != nil {
		return ferrors.FileSystemError(fmt.Sprintf("failed to remove %s", out)).WithCause(err).Build()
	}
	return nil
}
