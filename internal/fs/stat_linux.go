//go:build linux

package fs

import (
	"io/fs"
	"syscall"
	"time"
)

// AccessTime returns the last access time recorded in info, falling back to
// the modification time when the platform data is unavailable.
func AccessTime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Atim.Unix())
}
