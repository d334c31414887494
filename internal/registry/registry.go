// Package registry builds the per-scan snapshot of source resources and
// decides which of them changed since the previous build cycle.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/timing"
)

// ErrNameCollision indicates two source files of the same kind resolving to one name,
// e.g. photo.jpg and photo.jpeg. Both would write the same output path.
var ErrNameCollision = errors.New("resource name collision")

// Registry is the immutable, newest-first list of resources for one scan.
type Registry struct {
	resources []resource.Resource
}

// New builds a registry from already classified resources, applying the
// canonical order. It is mainly useful for tests and callers that classify
// sources themselves.
func New(resources []resource.Resource) *Registry {
	rs := slices.Clone(resources)
	sortNewestFirst(rs)
	return &Registry{resources: rs}
}

// Scan reads dir (one level, not recursive), classifies each entry, derives its
// Timing against the previous manifest and marks it changed when the previous
// Timing is absent or differs. Neither dir nor prev is modified.
//
// Any unreadable entry, malformed file name or same-kind name collision fails
// the whole scan.
func Scan(dir string, prev *manifest.Manifest, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.ScanError("failed to read source directory").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}

	classifier := resource.NewClassifier(logger)
	seen := make(map[string]string, len(entries))
	resources := make([]resource.Resource, 0, len(entries))

	for _, entry := range entries {
		src, ok, err := classifier.Classify(dir, entry)
		if err != nil {
			return nil, ferrors.ScanError("failed to classify source entry").
				WithCause(err).
				WithContext("dir", dir).
				Build()
		}
		if !ok {
			continue
		}

		key := src.Key()
		if other, dup := seen[key]; dup {
			return nil, ferrors.ScanError("duplicate resource name").
				WithCause(fmt.Errorf("%w: %s and %s both produce %s", ErrNameCollision, other, src.Path, key)).
				WithContext("resource", key).
				Build()
		}
		seen[key] = src.Path

		info, err := os.Stat(src.Path)
		if err != nil {
			return nil, ferrors.ScanError("failed to read file metadata").
				WithCause(err).
				WithContext("path", src.Path).
				Build()
		}

		previous := prev.Get(key)
		if previous == nil {
			// Manifests written before keys carried the kind used the bare name.
			previous = prev.Get(src.Name)
		}
		t, err := timing.Derive(info, previous)
		if err != nil {
			return nil, ferrors.ScanError("failed to derive resource timing").
				WithCause(err).
				WithContext("path", src.Path).
				Build()
		}

		changed := previous == nil || !previous.Equal(t)
		if changed {
			logger.Debug("Resource changed", logfields.Resource(key), logfields.Path(src.Path))
		}
		resources = append(resources, resource.Resource{Source: src, Timing: t, Changed: changed})
	}

	sortNewestFirst(resources)
	logger.Debug("Scanned source directory", logfields.Dir(dir), logfields.Count(len(resources)))
	return &Registry{resources: resources}, nil
}

// sortNewestFirst orders by Created descending. Equal instants fall back to
// key order so listings are stable across runs.
func sortNewestFirst(rs []resource.Resource) {
	slices.SortStableFunc(rs, func(a, b resource.Resource) int {
		if c := b.Timing.Created.Compare(a.Timing.Created); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
}

// Resources returns the resources in registry order.
func (r *Registry) Resources() []resource.Resource {
	return slices.Clone(r.resources)
}

func (r *Registry) Len() int { return len(r.resources) }

// OfKind returns the resources of one kind, preserving registry order.
func (r *Registry) OfKind(kind resource.Kind) []resource.Resource {
	var out []resource.Resource
	for _, res := range r.resources {
		if res.Kind == kind {
			out = append(out, res)
		}
	}
	return out
}

// Changed returns the resources flagged as changed at scan time.
func (r *Registry) Changed() []resource.Resource {
	var out []resource.Resource
	for _, res := range r.resources {
		if res.Changed {
			out = append(out, res)
		}
	}
	return out
}

// Timings returns the manifest this registry would persist.
func (r *Registry) Timings() *manifest.Manifest {
	m := make(map[string]timing.Timing, len(r.resources))
	for _, res := range r.resources {
		m[res.Key()] = res.Timing
	}
	return manifest.FromTimings(m)
}
