package watch

import (
	"context"
	"log/slog"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// State of the watch loop.
type State int32

const (
	Starting State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// CycleRunner runs build cycles for the loop.
type CycleRunner interface {
	LoadManifest() *manifest.Manifest
	Run(ctx context.Context, prev *manifest.Manifest, opts site.RunOptions) (site.Report, error)
}

// Loop owns the in-memory manifest and rebuilds on each non-benign event.
type Loop struct {
	cycles  CycleRunner
	logger  *slog.Logger
	state   atomic.Int32
	current *manifest.Manifest
}

// NewLoop creates a loop. A nil logger uses slog.Default().
func NewLoop(cycles CycleRunner, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{cycles: cycles, logger: logger}
}

// State reports the current state. It is safe to call from other goroutines.
func (l *Loop) State() State { return State(l.state.Load()) }

// Manifest returns the manifest currently held in memory.
func (l *Loop) Manifest() *manifest.Manifest { return l.current }

// Run builds once, then consumes events until a watcher error, ctx
// cancellation or the end of the stream.
//
// A failed initial cycle is returned: the loop only serves from a complete
// build. Later cycle failures are logged and the in-memory manifest is kept,
// so the next event retries every resource that failed. Manifest write
// failures are logged and the in-memory manifest still advances. A watcher
// error terminates the loop and is returned.
func (l *Loop) Run(ctx context.Context, events <-chan Event) error {
	defer l.setState(Terminated)

	report, err := l.cycles.Run(ctx, l.cycles.LoadManifest(), site.RunOptions{Trigger: site.TriggerInitial})
	if !report.Succeeded() {
		return err
	}
	l.accept(report, err)
	l.setState(Running)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Watch loop stopping", logfields.State(Terminated.String()))
			return nil
		case ev, ok := <-events:
			if !ok {
				l.logger.Info("Event stream closed", logfields.State(Terminated.String()))
				return nil
			}
			if err := l.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, ev Event) error {
	if ev.Err != nil {
		l.logger.Error("Watcher failed", logfields.Error(ev.Err))
		return ferrors.WatcherError("filesystem watcher failed").WithCause(ev.Err).Build()
	}
	if ev.Benign() {
		l.logger.Debug("Ignoring event", logfields.Op(ev.Op.String()))
		return nil
	}

	opts := site.RunOptions{Trigger: site.TriggerWatch}
	if ev.Op.Has(Scheduled) {
		opts = site.RunOptions{Trigger: site.TriggerScheduled, Force: true}
	}
	l.logger.Info("Change detected; rebuilding site",
		logfields.Op(ev.Op.String()),
		logfields.Count(len(ev.Paths)))

	report, err := l.cycles.Run(ctx, l.current, opts)
	if !report.Succeeded() {
		// Already logged by the cycle; wait for the next event.
		if classified, ok := ferrors.AsClassified(err); ok && classified.CanRetry() {
			l.logger.Info("Waiting for the next change to retry",
				slog.String("retry", string(classified.RetryStrategy())))
		}
		return nil
	}
	l.accept(report, err)
	return nil
}

// accept advances the in-memory manifest after a complete build.
func (l *Loop) accept(report site.Report, err error) {
	if err != nil {
		l.logger.Warn("Manifest not persisted; continuing with in-memory state", logfields.Error(err))
	}
	l.current = report.Next
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.logger.Debug("Watch loop state", logfields.State(s.String()))
}
