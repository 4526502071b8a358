package discosync

import "github.com/JOJ0/discodos-sub001/internal/model"

// HistoryStore records backup and restore invocations on the local host.
// It never stores remote listings.
type HistoryStore interface {
	// CreateOperation inserts op and returns its ID.
	CreateOperation(op *model.Operation) (int64, error)

	// FinishOperation stores the final outcome, status and finish time of op.
	FinishOperation(op *model.Operation) error

	// ListOperations returns up to limit operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// Close releases the underlying storage.
	Close() error
}
