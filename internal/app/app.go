package app

import (
	"fmt"
	"os"

	"github.com/JOJ0/discodos-sub001/internal/backend"
	"github.com/JOJ0/discodos-sub001/internal/config"
	"github.com/JOJ0/discodos-sub001/internal/database"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
	"github.com/JOJ0/discodos-sub001/internal/fs"
	"github.com/JOJ0/discodos-sub001/internal/model"
)

// DiscoApp is the application layer between the CLI and SyncService.
// It constructs all dependencies from config, records every backup and
// restore in the local history, and releases resources on Close.
type DiscoApp struct {
	cfg     *config.Config
	fsmgr   discosync.FilesystemManager
	history discosync.HistoryStore
	codec   *discosync.VersionCodec
	logger  discosync.Logger
	clock   discosync.Clock
	runID   string
	logFile *os.File

	// newBackend is called once, on the first command that needs the remote.
	newBackend func() (discosync.Backend, error)
	service    *discosync.SyncService
}

// NewDiscoApp creates a fully wired DiscoApp from the given config.
// The remote backend is only contacted by Backup, List and Restore.
// The caller must call Close when done.
func NewDiscoApp(cfg *config.Config) (*DiscoApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	runID := discosync.UUIDGenerator{}.New()
	logger, logFile, err := newLogger(cfg.LogDir, runID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	history, err := openHistory(cfg.History, adapter)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	a := newDiscoApp(cfg, fs.NewOSFilesystemManager(), history, adapter, discosync.RealClock{}, runID)
	a.logFile = logFile
	return a, nil
}

// openHistory opens the configured history store. When it cannot be opened
// the run continues with an in-memory store, since history never decides
// whether a backup or restore can happen.
func openHistory(cfg config.HistoryConfig, logger discosync.Logger) (discosync.HistoryStore, error) {
	history, err := database.NewHistoryFromConfig(cfg)
	if err == nil {
		return history, nil
	}
	logger.Warn("history unavailable, this run is not recorded", "type", cfg.Type, "data_dir", cfg.DataDir, "error", err)

	history, merr := database.NewHistoryFromConfig(config.HistoryConfig{Type: "memory"})
	if merr != nil {
		return nil, fmt.Errorf("creating history store: %w", err)
	}
	return history, nil
}

func newDiscoApp(cfg *config.Config, fsmgr discosync.FilesystemManager, history discosync.HistoryStore,
	logger discosync.Logger, clock discosync.Clock, runID string) *DiscoApp {
	a := &DiscoApp{
		cfg:     cfg,
		fsmgr:   fsmgr,
		history: history,
		codec:   discosync.LocalVersionCodec(),
		logger:  logger,
		clock:   clock,
		runID:   runID,
	}
	a.newBackend = func() (discosync.Backend, error) {
		return backend.NewBackendFromConfig(cfg.Backend, logger)
	}
	return a
}

// RunID identifies this invocation in the log and the history.
func (a *DiscoApp) RunID() string { return a.runID }

// Codec returns the codec used to name and decode versions.
func (a *DiscoApp) Codec() *discosync.VersionCodec { return a.codec }

// syncService connects to the configured backend on first use.
func (a *DiscoApp) syncService() (*discosync.SyncService, error) {
	if a.service != nil {
		return a.service, nil
	}
	b, err := a.newBackend()
	if err != nil {
		return nil, fmt.Errorf("connecting to %s backend: %w", a.cfg.Backend.Type, err)
	}
	a.logger.Debug("backend ready", "backend", discosync.BackendName(b))
	a.service = discosync.NewSyncService(b, a.fsmgr, a.codec, a.logger)
	return a.service, nil
}

// Backup uploads the configured state file unless its current version is
// already stored remotely.
func (a *DiscoApp) Backup() (*discosync.BackupResult, error) {
	op := a.startOperation(OperationBackup)

	svc, err := a.syncService()
	if err != nil {
		a.endOperation(op, "", "", err)
		return nil, err
	}

	res, err := svc.Backup(a.cfg.Discobase)
	var version, outcome string
	if res != nil {
		version, outcome = res.VersionName, res.Outcome.String()
	}
	a.endOperation(op, version, outcome, err)
	return res, err
}

// List returns the remote versions in the order the backend reports them.
// Listing is not recorded in the history.
func (a *DiscoApp) List() ([]discosync.RemoteEntry, error) {
	svc, err := a.syncService()
	if err != nil {
		return nil, err
	}
	return svc.List()
}

// Restore replaces the configured state file with a version picked through prompter.
func (a *DiscoApp) Restore(prompter discosync.Prompter) (*discosync.RestoreResult, error) {
	op := a.startOperation(OperationRestore)

	svc, err := a.syncService()
	if err != nil {
		a.endOperation(op, "", "", err)
		return nil, err
	}

	res, err := svc.Restore(a.cfg.Discobase, prompter)
	var version, outcome string
	if res != nil {
		version, outcome = res.Entry.Name, res.Outcome.String()
		if res.Outcome == discosync.Restored {
			a.logFileTimes(a.cfg.Discobase)
		}
	}
	a.endOperation(op, version, outcome, err)
	return res, err
}

// History returns up to limit recorded operations, newest first.
func (a *DiscoApp) History(limit int) ([]*model.Operation, error) {
	ops, err := a.history.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return ops, nil
}

// Close closes the history store and the log file.
func (a *DiscoApp) Close() error {
	var firstErr error
	if err := a.history.Close(); err != nil {
		firstErr = fmt.Errorf("closing history store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// startOperation persists a running record. History failures are logged
// and never affect the operation itself.
func (a *DiscoApp) startOperation(name string) *model.Operation {
	op := newOperation(name, a.runID, a.cfg.Backend.Type, a.cfg.Discobase, a.clock.Now())
	if _, err := a.history.CreateOperation(op); err != nil {
		a.logger.Warn("recording operation failed", "operation", name, "error", err)
	}
	return op
}

func (a *DiscoApp) endOperation(op *model.Operation, versionName, outcome string, err error) {
	finishOperation(op, versionName, outcome, err, a.clock.Now())
	if err != nil {
		a.logger.Error(op.Operation+" failed", "kind", op.ErrorKind, "error", err)
	}
	if op.ID == 0 {
		return
	}
	if ferr := a.history.FinishOperation(op); ferr != nil {
		a.logger.Warn("recording operation result failed", "operation", op.Operation, "error", ferr)
	}
}

func (a *DiscoApp) logFileTimes(path string) {
	info, err := a.fsmgr.Stat(path)
	if err != nil {
		a.logger.Warn("stat after restore failed", "path", path, "error", err)
		return
	}
	a.logger.Debug("local file times", "path", path,
		"mtime", info.ModTime().Format("2006-01-02 15:04:05"),
		"atime", fs.AccessTime(info).Format("2006-01-02 15:04:05"))
}
