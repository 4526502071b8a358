package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

const tmpPrefix = ".tmp-"

// FileSystemBackend stores versions as plain files in one directory, e.g. a
// mounted NAS share or a folder kept in sync by another tool:
//
//	<root>/
//	  discobase.db_2023-11-14_221320
//	  discobase.db_2023-11-20_080102
type FileSystemBackend struct {
	root   string
	logger discosync.Logger
}

// NewFileSystemBackend creates a backend rooted at root, creating the directory if needed.
func NewFileSystemBackend(root string, logger discosync.Logger) (*FileSystemBackend, error) {
	if root == "" {
		return nil, discosync.ConfigErrorf("filesystem backend requires fs_root to be set")
	}
	if logger == nil {
		logger = discosync.NewNopLogger()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backend directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("backend root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, discosync.ConfigErrorf("backend root is not a directory: %s", root)
	}
	return &FileSystemBackend{root: root, logger: logger}, nil
}

func (b *FileSystemBackend) Name() string { return "filesystem" }

func (b *FileSystemBackend) Exists(name string) (bool, error) {
	info, err := os.Stat(filepath.Join(b.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, discosync.MarkBackend(err, "filesystem stat")
	}
	return !info.IsDir(), nil
}

// List returns the regular files under root in name order. Sub-directories
// and leftover temp files from interrupted uploads are skipped.
func (b *FileSystemBackend) List() ([]discosync.RemoteEntry, error) {
	dirEntries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, discosync.MarkBackend(err, "filesystem list")
	}

	entries := make([]discosync.RemoteEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), tmpPrefix) {
			continue
		}
		entries = append(entries, discosync.RemoteEntry{Name: de.Name()})
	}
	return entries, nil
}

// Upload writes content using an atomic write (temp file + rename).
func (b *FileSystemBackend) Upload(name string, content []byte) error {
	destPath := filepath.Join(b.root, name)

	tmpFile, err := os.CreateTemp(b.root, tmpPrefix+"*")
	if err != nil {
		return b.writeError(err, "create temp file")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return b.writeError(err, "write data")
	}
	if err := tmpFile.Close(); err != nil {
		return b.writeError(err, "close temp file")
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return b.writeError(err, "rename temp file")
	}

	success = true
	return nil
}

func (b *FileSystemBackend) Download(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(b.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return discosync.MarkNotFound(err, "filesystem download")
		}
		return discosync.MarkBackend(err, "filesystem download")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return discosync.MarkBackend(err, "filesystem read")
	}
	return nil
}

// writeError maps a failed write to ErrQuotaExceeded when the device or the
// user's quota is full and to ErrBackend otherwise.
func (b *FileSystemBackend) writeError(err error, op string) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		b.logger.Error("backend storage full", "root", b.root, "error", err)
		return discosync.MarkQuota(err, "filesystem "+op)
	}
	return discosync.MarkBackend(err, "filesystem "+op)
}

// Compile-time check that FileSystemBackend implements discosync.Backend
var _ discosync.Backend = (*FileSystemBackend)(nil)
