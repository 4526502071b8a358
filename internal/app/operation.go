package app

import (
	"time"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
	"github.com/JOJ0/discodos-sub001/internal/model"
)

// Operation names and statuses as stored in the history.
const (
	OperationBackup  = "backup"
	OperationRestore = "restore"

	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// newOperation creates an in-memory record for a backup or restore run.
// It has ID=0 until the history store persists it.
func newOperation(name, runID, backendType, localPath string, started time.Time) *model.Operation {
	return &model.Operation{
		RunID:     runID,
		Operation: name,
		Backend:   backendType,
		LocalPath: localPath,
		Status:    StatusRunning,
		StartedAt: started.UTC(),
	}
}

// finishOperation stores the final state of op. A non-nil err marks the
// operation as failed and records its kind and message.
func finishOperation(op *model.Operation, versionName, outcome string, err error, finished time.Time) {
	op.VersionName = versionName
	op.Outcome = outcome
	op.FinishedAt.Time = finished.UTC()
	op.FinishedAt.Valid = true
	if err != nil {
		op.Status = StatusError
		op.ErrorKind = discosync.KindOf(err)
		op.Message = err.Error()
		return
	}
	op.Status = StatusSuccess
	op.ErrorKind = ""
	op.Message = ""
}
