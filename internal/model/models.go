package model

import (
	"database/sql"
	"time"
)

// Operation is one recorded backup or restore invocation on the local host.
type Operation struct {
	ID          int64
	RunID       string // UUID, also written to every log line of the run
	Operation   string // "backup" or "restore"
	Backend     string // backend type, e.g. "dropbox"
	LocalPath   string // local state file
	VersionName string // version uploaded, found, or restored; may be empty
	Outcome     string // e.g. "uploaded", "already_exists", "declined"
	Status      string // "running", "success" or "error"
	ErrorKind   string // taxonomy name when Status is "error"
	Message     string // error text when Status is "error"
	StartedAt   time.Time
	FinishedAt  sql.NullTime
}

// Finished reports whether the operation has a finish time.
func (o *Operation) Finished() bool {
	return o.FinishedAt.Valid
}

// Duration returns how long the operation ran, or zero if it has not finished.
func (o *Operation) Duration() time.Duration {
	if !o.FinishedAt.Valid {
		return 0
	}
	return o.FinishedAt.Time.Sub(o.StartedAt)
}
