package discosync

import (
	"github.com/cockroachdb/errors"
)

// BackupOutcome is the result of a successful backup call.
type BackupOutcome int

const (
	// Uploaded means the version did not exist remotely and was uploaded.
	Uploaded BackupOutcome = iota + 1

	// AlreadyExists means a version with the same name is already stored.
	// Nothing was uploaded.
	AlreadyExists
)

func (o BackupOutcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// BackupResult describes a finished backup.
type BackupResult struct {
	Outcome     BackupOutcome
	VersionName string
	Size        int

	// Entries is the remote listing taken after a successful upload.
	// It is nil for AlreadyExists or when that listing failed.
	Entries []RemoteEntry
}

// Backup uploads the local file at path as a new version unless a version
// for its current modification time already exists.
//
// Backend failures abort the backup and are returned with their kind intact.
func (s *SyncService) Backup(path string) (*BackupResult, error) {
	info, err := s.fsmgr.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading local file")
	}
	if info.IsDir() {
		return nil, errors.Newf("path is a directory, not a file: %s", path)
	}

	name := s.codec.Encode(path, info.ModTime().Unix())
	s.logger.Info("backup started", "path", path, "version", name)

	exists, err := s.backend.Exists(name)
	if err != nil {
		return nil, errors.Wrapf(err, "checking whether %s exists", name)
	}
	if exists {
		s.logger.Info("version already exists, not uploading", "version", name)
		return &BackupResult{Outcome: AlreadyExists, VersionName: name}, nil
	}

	content, err := s.fsmgr.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading local file")
	}

	if err := s.backend.Upload(name, content); err != nil {
		return nil, errors.Wrapf(err, "uploading %s", name)
	}
	s.logger.Info("version uploaded", "version", name, "size", len(content))

	result := &BackupResult{Outcome: Uploaded, VersionName: name, Size: len(content)}

	entries, err := s.List()
	if err != nil {
		s.logger.Warn("listing after upload failed", "error", err)
		return result, nil
	}
	result.Entries = entries
	return result, nil
}
