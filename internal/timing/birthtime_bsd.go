//go:build darwin || freebsd || netbsd

package timing

import (
	"io/fs"
	"syscall"
	"time"
)

func birthTime(info fs.FileInfo) (time.Time, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return time.Time{}, false
	}
	sec, nsec := st.Birthtimespec.Unix()
	if sec == 0 && nsec == 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, nsec), true
}
