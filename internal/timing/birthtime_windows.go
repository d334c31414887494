//go:build windows

package timing

import (
	"io/fs"
	"syscall"
	"time"
)

func birthTime(info fs.FileInfo) (time.Time, bool) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok || attrs == nil {
		return time.Time{}, false
	}
	ns := attrs.CreationTime.Nanoseconds()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
