// Package watch drives incremental rebuilds from filesystem notifications.
//
// A Source turns raw fsnotify events into debounced Events, a Scheduler adds
// periodic forced rebuilds, and Loop consumes the merged stream one event at a
// time.
package watch

import (
	"context"
	"strings"
	"sync"
)

// Op is a set of coalesced change kinds.
type Op uint32

const (
	Create Op = 1 << iota
	Write
	Remove
	Rename
	Chmod
	// Rescan means the notification queue overflowed and individual events were lost.
	Rescan
	// Scheduled is a timed full rebuild, not a filesystem change.
	Scheduled
)

var opNames = []struct {
	op   Op
	name string
}{
	{Create, "CREATE"},
	{Write, "WRITE"},
	{Remove, "REMOVE"},
	{Rename, "RENAME"},
	{Chmod, "CHMOD"},
	{Rescan, "RESCAN"},
	{Scheduled, "SCHEDULED"},
}

// Has reports whether o contains every bit of x.
func (o Op) Has(x Op) bool { return o&x == x }

func (o Op) String() string {
	var parts []string
	for _, n := range opNames {
		if o.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Event is one debounced notification. A non-nil Err is a terminal watcher
// failure; no further events follow it.
type Event struct {
	Op    Op
	Paths []string
	Err   error
}

// Benign reports whether the event carries nothing that requires a rebuild:
// only permission changes and rescans.
func (e Event) Benign() bool {
	return e.Err == nil && e.Op&^(Chmod|Rescan) == 0
}

func (e *Event) merge(other Event) {
	e.Op |= other.Op
	for _, p := range other.Paths {
		if !containsString(e.Paths, p) {
			e.Paths = append(e.Paths, p)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Merge fans several event streams into one. The returned channel closes
// once every input has closed or ctx is done.
func Merge(ctx context.Context, inputs ...<-chan Event) <-chan Event {
	out := make(chan Event)
	var wg sync.WaitGroup
	for _, in := range inputs {
		if in == nil {
			continue
		}
		wg.Add(1)
		go func(in <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(in)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
