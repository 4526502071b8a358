package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOSFilesystemManager_Stat(t *testing.T) {
	m := NewOSFilesystemManager()
	dir := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(dir, "discobase.db")
		if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}

		info, err := m.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Size() != 4 {
			t.Errorf("Size() = %d, want 4", info.Size())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := m.Stat(filepath.Join(dir, "missing.db"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Stat() error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestOSFilesystemManager_WriteFile(t *testing.T) {
	m := NewOSFilesystemManager()

	t.Run("creates new file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "discobase.db")

		if err := m.WriteFile(path, []byte("restored")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		got, err := m.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != "restored" {
			t.Errorf("ReadFile() = %q, want %q", got, "restored")
		}
	})

	t.Run("replaces existing file and keeps permissions", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "discobase.db")
		if err := os.WriteFile(path, []byte("old content that is longer"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, 0600); err != nil {
			t.Fatal(err)
		}

		if err := m.WriteFile(path, []byte("new")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		got, _ := os.ReadFile(path)
		if string(got) != "new" {
			t.Errorf("content = %q, want %q", got, "new")
		}
		info, _ := os.Stat(path)
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want %o", perm, 0600)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("directory has %d entries, want 1 (temp file left behind?)", len(entries))
		}
	})

	t.Run("refuses to overwrite a directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := m.WriteFile(dir, []byte("x")); err == nil {
			t.Fatal("WriteFile() expected error for directory")
		}
	})
}

func TestOSFilesystemManager_WriteFileThroughSymlink(t *testing.T) {
	m := NewOSFilesystemManager()

	t.Run("replaces the link target", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "data", "discobase.db")
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(target, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}
		link := filepath.Join(dir, "discobase.db")
		if err := os.Symlink(filepath.Join("data", "discobase.db"), link); err != nil {
			t.Fatal(err)
		}

		if err := m.WriteFile(link, []byte("restored")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		info, err := os.Lstat(link)
		if err != nil {
			t.Fatalf("Lstat() error = %v", err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("link mode = %v, want a symlink", info.Mode())
		}
		got, _ := os.ReadFile(target)
		if string(got) != "restored" {
			t.Errorf("target content = %q, want %q", got, "restored")
		}
		tinfo, _ := os.Stat(target)
		if perm := tinfo.Mode().Perm(); perm != 0600 {
			t.Errorf("target permissions = %o, want %o", perm, 0600)
		}

		entries, _ := os.ReadDir(filepath.Dir(target))
		if len(entries) != 1 {
			t.Errorf("target directory has %d entries, want 1 (temp file left behind?)", len(entries))
		}
	})

	t.Run("creates the target of a dangling link", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "discobase.db.real")
		link := filepath.Join(dir, "discobase.db")
		if err := os.Symlink(target, link); err != nil {
			t.Fatal(err)
		}

		if err := m.WriteFile(link, []byte("restored")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		info, _ := os.Lstat(link)
		if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("link mode = %v, want a symlink", info.Mode())
		}
		got, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("ReadFile(target) error = %v", err)
		}
		if string(got) != "restored" {
			t.Errorf("target content = %q, want %q", got, "restored")
		}
	})

	t.Run("symlink loop", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a")
		b := filepath.Join(dir, "b")
		if err := os.Symlink(b, a); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(a, b); err != nil {
			t.Fatal(err)
		}

		if err := m.WriteFile(a, []byte("x")); err == nil {
			t.Fatal("WriteFile() expected error for a symlink loop")
		}
	})
}

func TestOSFilesystemManager_Chtimes(t *testing.T) {
	m := NewOSFilesystemManager()
	path := filepath.Join(t.TempDir(), "discobase.db")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	want := time.Date(2023, 11, 15, 10, 0, 0, 0, time.UTC)
	if err := m.Chtimes(path, want, want); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	info, err := m.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(want) {
		t.Errorf("ModTime() = %v, want %v", info.ModTime(), want)
	}
	if got := AccessTime(info); !got.Equal(want) {
		t.Errorf("AccessTime() = %v, want %v", got, want)
	}
}

func TestOSFilesystemManager_ChtimesMissingFile(t *testing.T) {
	m := NewOSFilesystemManager()
	now := time.Now()
	if err := m.Chtimes(filepath.Join(t.TempDir(), "missing"), now, now); err == nil {
		t.Fatal("Chtimes() expected error for missing file")
	}
}
