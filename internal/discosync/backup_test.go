package discosync_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
	"github.com/JOJ0/discodos-sub001/internal/testutil"
)

const dbPath = "/home/user/.discodos/discobase.db"

// setupService creates a service over a recording backend and mock filesystem,
// with version names in UTC so expectations do not depend on the host zone.
func setupService(t *testing.T) (*discosync.SyncService, *testutil.RecordingBackend, *testutil.MockFilesystemManager) {
	t.Helper()
	backend := testutil.NewTestBackend()
	fsmgr := testutil.NewMockFilesystemManager()
	svc := discosync.NewSyncService(backend, fsmgr, discosync.NewVersionCodec(time.UTC), discosync.NewNopLogger())
	return svc, backend, fsmgr
}

func TestSyncService_Backup(t *testing.T) {
	t.Run("uploads when version is absent", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		content := []byte("sqlite bytes")
		fsmgr.AddFile(dbPath, content, time.Unix(1700000000, 0))

		result, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		if result.Outcome != discosync.Uploaded {
			t.Errorf("Outcome = %v, want %v", result.Outcome, discosync.Uploaded)
		}
		wantName := "discobase.db_2023-11-14_221320"
		if result.VersionName != wantName {
			t.Errorf("VersionName = %q, want %q", result.VersionName, wantName)
		}
		if backend.UploadCalls != 1 {
			t.Fatalf("UploadCalls = %d, want 1", backend.UploadCalls)
		}
		if backend.Uploads[0] != wantName {
			t.Errorf("uploaded name = %q, want %q", backend.Uploads[0], wantName)
		}

		var buf bytes.Buffer
		if err := backend.MemoryBackend.Download(wantName, &buf); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if !bytes.Equal(buf.Bytes(), content) {
			t.Errorf("stored content = %q, want %q", buf.Bytes(), content)
		}
	})

	t.Run("lists remote versions after upload", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		backend.Seed("discobase.db_2023-11-01_080000", []byte("old"))
		fsmgr.AddFile(dbPath, []byte("new"), time.Unix(1700000000, 0))

		result, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if len(result.Entries) != 2 {
			t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
		}
		if result.Entries[1].Name != result.VersionName {
			t.Errorf("last entry = %q, want %q", result.Entries[1].Name, result.VersionName)
		}
	})

	t.Run("second backup without mtime change reports already exists", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		fsmgr.AddFile(dbPath, []byte("data"), time.Unix(1700000000, 0))

		first, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("first Backup() error = %v", err)
		}
		second, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("second Backup() error = %v", err)
		}

		if first.Outcome != discosync.Uploaded {
			t.Errorf("first Outcome = %v, want %v", first.Outcome, discosync.Uploaded)
		}
		if second.Outcome != discosync.AlreadyExists {
			t.Errorf("second Outcome = %v, want %v", second.Outcome, discosync.AlreadyExists)
		}
		if backend.UploadCalls != 1 {
			t.Errorf("UploadCalls = %d, want 1", backend.UploadCalls)
		}
		if second.Entries != nil {
			t.Errorf("Entries = %v, want nil for already existing version", second.Entries)
		}
	})

	t.Run("changed mtime creates a new version", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		fsmgr.AddFile(dbPath, []byte("v1"), time.Unix(1700000000, 0))
		if _, err := svc.Backup(dbPath); err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		fsmgr.AddFile(dbPath, []byte("v2"), time.Unix(1700000001, 0))
		result, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		if result.Outcome != discosync.Uploaded {
			t.Errorf("Outcome = %v, want %v", result.Outcome, discosync.Uploaded)
		}
		if backend.UploadCalls != 2 {
			t.Errorf("UploadCalls = %d, want 2", backend.UploadCalls)
		}
	})

	t.Run("exists error aborts without upload", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		fsmgr.AddFile(dbPath, []byte("data"), time.Unix(1700000000, 0))
		backend.ExistsErr = discosync.MarkConnectivity(fmt.Errorf("dial tcp: connection refused"), "dropbox")

		_, err := svc.Backup(dbPath)
		if !errors.Is(err, discosync.ErrConnectivity) {
			t.Fatalf("Backup() error = %v, want ErrConnectivity", err)
		}
		if backend.UploadCalls != 0 {
			t.Errorf("UploadCalls = %d, want 0", backend.UploadCalls)
		}
	})

	t.Run("upload error is surfaced with its kind", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		fsmgr.AddFile(dbPath, []byte("data"), time.Unix(1700000000, 0))
		backend.UploadErr = discosync.MarkQuota(fmt.Errorf("insufficient_space"), "upload")

		_, err := svc.Backup(dbPath)
		if !errors.Is(err, discosync.ErrQuotaExceeded) {
			t.Fatalf("Backup() error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("listing failure after upload keeps outcome", func(t *testing.T) {
		t.Parallel()
		svc, backend, fsmgr := setupService(t)

		fsmgr.AddFile(dbPath, []byte("data"), time.Unix(1700000000, 0))
		backend.ListErr = discosync.MarkBackend(fmt.Errorf("500"), "list")

		result, err := svc.Backup(dbPath)
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if result.Outcome != discosync.Uploaded {
			t.Errorf("Outcome = %v, want %v", result.Outcome, discosync.Uploaded)
		}
		if result.Entries != nil {
			t.Errorf("Entries = %v, want nil", result.Entries)
		}
	})

	t.Run("missing local file returns error", func(t *testing.T) {
		t.Parallel()
		svc, backend, _ := setupService(t)

		if _, err := svc.Backup(dbPath); err == nil {
			t.Fatal("expected error for missing local file")
		}
		if backend.ExistsCalls != 0 {
			t.Errorf("ExistsCalls = %d, want 0", backend.ExistsCalls)
		}
	})

	t.Run("directory path returns error", func(t *testing.T) {
		t.Parallel()
		svc, _, fsmgr := setupService(t)

		fsmgr.AddDirectory("/home/user/.discodos")
		if _, err := svc.Backup("/home/user/.discodos"); err == nil {
			t.Fatal("expected error for directory path")
		}
	})
}

func TestBackupOutcome_String(t *testing.T) {
	tests := []struct {
		outcome discosync.BackupOutcome
		want    string
	}{
		{discosync.Uploaded, "uploaded"},
		{discosync.AlreadyExists, "already_exists"},
		{discosync.BackupOutcome(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSyncService_List(t *testing.T) {
	svc, backend, _ := setupService(t)

	backend.Listing = []discosync.RemoteEntry{
		{Name: "discobase.db_2024-01-02_120000", Rev: "b"},
		{Name: ""},
		{Name: "discobase.db_2024-01-01_120000", Rev: "a"},
	}

	entries, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"discobase.db_2024-01-02_120000", "discobase.db_2024-01-01_120000"}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %q, want %q (order must match the remote)", i, entries[i].Name, name)
		}
	}
	if entries[0].Rev != "b" {
		t.Errorf("entries[0].Rev = %q, want %q", entries[0].Rev, "b")
	}
}
