// Package timing captures when a source resource was created and last modified,
// and resolves the creation instant on platforms that do not record one.
package timing

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// ErrModTimeUnavailable is returned when a file's last-write instant cannot be read.
var ErrModTimeUnavailable = errors.New("modification time unavailable")

// Timing is the pair of creation and modification instants of one resource.
// Both instants are normalized to UTC.
type Timing struct {
	Created  time.Time
	Modified time.Time
}

// Equal reports whether both instants match. Locations are ignored.
func (t Timing) Equal(other Timing) bool {
	return t.Created.Equal(other.Created) && t.Modified.Equal(other.Modified)
}

func (t Timing) String() string {
	return fmt.Sprintf("created=%s modified=%s", t.Created.Format(time.RFC3339Nano), t.Modified.Format(time.RFC3339Nano))
}

// Derive computes the Timing for a file from its metadata and the Timing the
// previous cycle recorded under the same key (nil when there is none).
//
// Created is resolved by the first of:
//  1. the filesystem's native creation instant, when the platform exposes one
//  2. prev.Created
//  3. the modification instant
func Derive(info fs.FileInfo, prev *Timing) (Timing, error) {
	if info == nil {
		return Timing{}, ErrModTimeUnavailable
	}
	modified := info.ModTime()
	if modified.IsZero() {
		return Timing{}, fmt.Errorf("%w: %s", ErrModTimeUnavailable, info.Name())
	}
	created, ok := birthTime(info)
	return resolve(modified, created, ok, prev), nil
}

func resolve(modified, created time.Time, hasCreated bool, prev *Timing) Timing {
	modified = modified.UTC()
	switch {
	case hasCreated && !created.IsZero():
		created = created.UTC()
	case prev != nil:
		created = prev.Created.UTC()
	default:
		created = modified
	}
	return Timing{Created: created, Modified: modified}
}
