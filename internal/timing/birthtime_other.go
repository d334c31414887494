//go:build !(darwin || freebsd || netbsd || windows)

package timing

import (
	"io/fs"
	"time"
)

// Linux and the remaining platforms do not expose a creation instant through
// os.Stat; callers fall back to the previous manifest entry.
func birthTime(fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
