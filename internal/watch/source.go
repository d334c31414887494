package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce is the coalescing window for bursts of filesystem events.
const DefaultDebounce = time.Second

// Source watches one directory (not recursively) and emits debounced events.
type Source struct {
	dir     string
	window  time.Duration
	watcher *fsnotify.Watcher
	events  chan Event
	logger  *slog.Logger
}

// NewSource starts watching dir. A window of zero or less uses DefaultDebounce.
func NewSource(dir string, window time.Duration, logger *slog.Logger) (*Source, error) {
	if window <= 0 {
		window = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Source{
		dir:     dir,
		window:  window,
		watcher: watcher,
		events:  make(chan Event, 1),
		logger:  logger,
	}, nil
}

// Events returns the debounced stream. It is closed when Run returns.
func (s *Source) Events() <-chan Event { return s.events }

// Run pumps raw notifications until ctx is done or the watcher fails.
// Changes that arrive while a debounced event waits for the consumer are
// folded into the next event instead of being dropped. A watcher error is
// delivered as a terminal Event and returned.
func (s *Source) Run(ctx context.Context) error {
	defer close(s.events)
	defer func() { _ = s.watcher.Close() }()

	var (
		pending, ready Event
		havePending    bool
		timer          *time.Timer
		timerC         <-chan time.Time
		out            chan<- Event
	)
	arm := func() {
		havePending = true
		if timer == nil {
			timer = time.NewTimer(s.window)
		} else {
			timer.Reset(s.window)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			s.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
			pending.merge(Event{Op: translate(ev.Op), Paths: []string{ev.Name}})
			arm()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				s.logger.Warn("Filesystem event queue overflowed", logfields.Dir(s.dir))
				pending.merge(Event{Op: Rescan})
				arm()
				continue
			}
			select {
			case s.events <- Event{Err: err}:
			case <-ctx.Done():
			}
			return err

		case <-timerC:
			timerC = nil
			if havePending {
				ready.merge(pending)
				pending, havePending = Event{}, false
				out = s.events
			}

		case out <- ready:
			ready, out = Event{}, nil
		}
	}
}

func translate(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= Create
	}
	if op.Has(fsnotify.Write) {
		out |= Write
	}
	if op.Has(fsnotify.Remove) {
		out |= Remove
	}
	if op.Has(fsnotify.Rename) {
		out |= Rename
	}
	if op.Has(fsnotify.Chmod) {
		out |= Chmod
	}
	return out
}

// shouldIgnoreEvent returns true for files that never affect the build:
// hidden files (including the manifest), editor swap files and OS metadata.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
