//go:build !linux

package fs

import (
	"io/fs"
	"time"
)

// AccessTime returns the modification time; access times are only read on Linux.
func AccessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
