// Package manifest persists the last-observed Timing of every resource between
// build cycles. A missing or unreadable manifest is never fatal: it degrades to
// an empty manifest, which makes every resource count as changed.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/timing"
)

// Manifest maps resource keys to their last-known Timing.
//
// A Manifest is replaced wholesale at the end of a build cycle and is never
// patched in place once published.
type Manifest struct {
	timings map[string]timing.Timing
}

// document is the on-disk shape.
//
//	[timings."article/foo"]
//	created = 2024-01-02T03:04:05Z
//	modified = 2024-01-02T03:04:05Z
type document struct {
	Timings map[string]entry `toml:"timings"`
}

type entry struct {
	Created  time.Time `toml:"created"`
	Modified time.Time `toml:"modified"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{timings: map[string]timing.Timing{}}
}

// FromTimings builds a manifest from a key → Timing map. The map is copied.
func FromTimings(timings map[string]timing.Timing) *Manifest {
	m := New()
	for k, t := range timings {
		m.timings[k] = timing.Timing{Created: t.Created.UTC(), Modified: t.Modified.UTC()}
	}
	return m
}

// Get returns the Timing recorded under key, or nil.
func (m *Manifest) Get(key string) *timing.Timing {
	if m == nil {
		return nil
	}
	t, ok := m.timings[key]
	if !ok {
		return nil
	}
	return &t
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.timings)
}

// Names returns the manifest keys in ascending order.
func (m *Manifest) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.timings))
}

// Timings returns a copy of the underlying map.
func (m *Manifest) Timings() map[string]timing.Timing {
	if m == nil {
		return map[string]timing.Timing{}
	}
	return maps.Clone(m.timings)
}

// Equal reports whether both manifests hold the same keys with equal Timings.
func (m *Manifest) Equal(other *Manifest) bool {
	if m.Len() != other.Len() {
		return false
	}
	for k, t := range m.Timings() {
		o := other.Get(k)
		if o == nil || !t.Equal(*o) {
			return false
		}
	}
	return true
}

// Decode reads a manifest document.
func Decode(r io.Reader) (*Manifest, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m := New()
	for k, e := range doc.Timings {
		m.timings[k] = timing.Timing{Created: e.Created.UTC(), Modified: e.Modified.UTC()}
	}
	return m, nil
}

// Encode writes the manifest as a key-sorted TOML document.
func (m *Manifest) Encode(w io.Writer) error {
	doc := document{Timings: make(map[string]entry, m.Len())}
	for k, t := range m.Timings() {
		doc.Timings[k] = entry{Created: t.Created.UTC(), Modified: t.Modified.UTC()}
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// Load reads the manifest at path.
//
// A missing file yields an empty manifest and a nil error. A file that cannot
// be read or parsed yields an empty manifest together with the error, so
// callers can log it and carry on.
func Load(path string) (*Manifest, error) {
	// #nosec G304 - manifest path is operator-controlled
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return New(), fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadOrEmpty is Load with the error logged as a warning.
func LoadOrEmpty(path string, logger *slog.Logger) *Manifest {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := Load(path)
	if err != nil {
		logger.Warn("Ignoring unreadable manifest; every resource will be rebuilt",
			logfields.Path(path), logfields.Error(err))
	}
	return m
}

// Save writes the manifest to path atomically (temporary file + rename).
func (m *Manifest) Save(path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temporary manifest: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
