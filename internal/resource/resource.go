// Package resource classifies source files into typed, named resources and
// knows where each resource lands in the output tree.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/timing"
)

var (
	// ErrNoExtension indicates a regular source file without a file extension.
	ErrNoExtension = errors.New("source file has no extension")
	// ErrInvalidName indicates a file name that is not valid text or has an empty stem.
	ErrInvalidName = errors.New("invalid source file name")
)

// Source is a classified directory entry before timing is attached.
type Source struct {
	Name string
	Path string
	Kind Kind
}

// Key identifies the resource across cycles. Kind is part of the key so that
// an article and a photo sharing a stem are tracked independently.
func (s Source) Key() string { return s.Kind.String() + "/" + s.Name }

// Resource is one classified source file with its Timing for the current scan.
// It is immutable once the registry hands it out.
type Resource struct {
	Source
	Timing  timing.Timing
	Changed bool
}

// Classifier maps directory entries to sources.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger uses slog.Default().
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify inspects one entry of dir.
//
// It returns ok=false for entries that are not content: directories and other
// non-regular files (symlinks count by their target), hidden files, and unrecognized extensions. Names that are
// not valid UTF-8 and regular files without an extension are errors, as they
// indicate a malformed source tree.
func (c *Classifier) Classify(dir string, entry fs.DirEntry) (Source, bool, error) {
	name := entry.Name()
	path := filepath.Join(dir, name)

	if !isRegular(entry, path) {
		c.logger.Debug("Skipping non-regular entry", logfields.Path(path))
		return Source{}, false, nil
	}
	if strings.HasPrefix(name, ".") {
		c.logger.Debug("Skipping hidden file", logfields.Path(path))
		return Source{}, false, nil
	}
	if !utf8.ValidString(name) {
		return Source{}, false, fmt.Errorf("%w: %q", ErrInvalidName, path)
	}

	ext := filepath.Ext(name)
	if ext == "" {
		return Source{}, false, fmt.Errorf("%w: %s", ErrNoExtension, path)
	}
	kind, ok := KindForExtension(ext)
	if !ok {
		c.logger.Debug("Skipping file due to unknown extension", logfields.Path(path))
		return Source{}, false, nil
	}

	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return Source{}, false, fmt.Errorf("%w: empty name in %s", ErrInvalidName, path)
	}
	return Source{Name: stem, Path: path, Kind: kind}, true, nil
}

// isRegular follows symlinks. A dangling link is not a file.
func isRegular(entry fs.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}
