package discosync

import (
	"io/fs"
	"time"
)

// FilesystemManager provides access to the local state file.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Stat returns fresh file info for path.
	Stat(path string) (fs.FileInfo, error)

	// ReadFile returns the whole content of path.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the content of path with data as a whole.
	// The file is created if it does not exist.
	WriteFile(path string, data []byte) error

	// Chtimes sets the access and modification times of path.
	Chtimes(path string, atime, mtime time.Time) error
}
