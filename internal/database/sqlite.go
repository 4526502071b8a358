package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JOJ0/discodos-sub001/internal/database/migrations"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
	"github.com/JOJ0/discodos-sub001/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteHistory implements discosync.HistoryStore using SQLite.
type SQLiteHistory struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistory opens the database at path and migrates it to the latest
// schema. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking history schema: %w", err)
	}
	return &SQLiteHistory{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (s *SQLiteHistory) CreateOperation(op *model.Operation) (int64, error) {
	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO operations (run_id, operation, backend, local_path, version_name,
			outcome, status, error_kind, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.RunID, op.Operation, op.Backend, op.LocalPath, op.VersionName,
		op.Outcome, op.Status, op.ErrorKind, op.Message, op.StartedAt.UTC(), nullTimeUTC(op.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading operation id: %w", err)
	}
	op.ID = id
	return id, nil
}

func (s *SQLiteHistory) FinishOperation(op *model.Operation) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE operations
		SET version_name = ?, outcome = ?, status = ?, error_kind = ?, message = ?, finished_at = ?
		WHERE id = ?`,
		op.VersionName, op.Outcome, op.Status, op.ErrorKind, op.Message, nullTimeUTC(op.FinishedAt), op.ID,
	)
	if err != nil {
		return fmt.Errorf("updating operation %d: %w", op.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating operation %d: %w", op.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d not found", op.ID)
	}
	return nil
}

func (s *SQLiteHistory) ListOperations(limit int) ([]*model.Operation, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, run_id, operation, backend, local_path, version_name, outcome,
			status, error_kind, message, started_at, finished_at
		FROM operations
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		op := &model.Operation{}
		if err := rows.Scan(
			&op.ID, &op.RunID, &op.Operation, &op.Backend, &op.LocalPath, &op.VersionName,
			&op.Outcome, &op.Status, &op.ErrorKind, &op.Message, &op.StartedAt, &op.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Close closes the underlying database connection.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

func nullTimeUTC(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

// Compile-time check that SQLiteHistory implements discosync.HistoryStore
var _ discosync.HistoryStore = (*SQLiteHistory)(nil)
