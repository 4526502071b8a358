package discosync

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// RestoreState is a step of the restore protocol.
type RestoreState int

const (
	StateInit RestoreState = iota
	StateListed
	StateSelected
	StateConfirmed
	StateDownloaded
	StateTimestampFixed
	StateDone
	StateAborted
)

var restoreStateNames = map[RestoreState]string{
	StateInit:           "init",
	StateListed:         "listed",
	StateSelected:       "selected",
	StateConfirmed:      "confirmed",
	StateDownloaded:     "downloaded",
	StateTimestampFixed: "timestamp_fixed",
	StateDone:           "done",
	StateAborted:        "aborted",
}

func (s RestoreState) String() string {
	if name, ok := restoreStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// RestoreOutcome tells a caller how a restore without error ended.
type RestoreOutcome int

const (
	// Restored means the local file was replaced by the selected version.
	Restored RestoreOutcome = iota + 1

	// NothingToRestore means the listing was empty or the selection was not a number.
	NothingToRestore

	// NonExistentID means the selection was a number outside the listing.
	NonExistentID

	// Declined means the user did not confirm the overwrite.
	Declined
)

func (o RestoreOutcome) String() string {
	switch o {
	case Restored:
		return "restored"
	case NothingToRestore:
		return "nothing_to_restore"
	case NonExistentID:
		return "non_existent_id"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

// RestoreResult describes a restore that ended without error.
type RestoreResult struct {
	State   RestoreState
	Outcome RestoreOutcome

	// Entry is the selected version. Zero when nothing was selected.
	Entry RemoteEntry

	// ModTime is the timestamp decoded from Entry.Name and applied to the file.
	ModTime time.Time

	// TimestampErr is set when the content was restored but the file times
	// could not be applied. The content is kept.
	TimestampErr error
}

// Aborted reports whether the restore stopped before touching the local file.
func (r *RestoreResult) Aborted() bool {
	return r.State == StateAborted
}

// restoreRun carries one restore invocation through its states.
type restoreRun struct {
	svc    *SyncService
	state  RestoreState
	result *RestoreResult
}

func (r *restoreRun) advance(to RestoreState) {
	r.svc.logger.Debug("restore state", "from", r.state.String(), "to", to.String())
	r.state = to
	r.result.State = to
}

func (r *restoreRun) abort(outcome RestoreOutcome) *RestoreResult {
	r.advance(StateAborted)
	r.result.Outcome = outcome
	r.svc.logger.Info("restore aborted", "outcome", outcome.String())
	return r.result
}

// Restore lists the remote versions once, lets prompter pick one and confirm
// the overwrite, downloads it over the local file at path and finally sets
// the file's access and modification time to the time encoded in the
// version name.
//
// An empty listing, an invalid selection or a declined confirmation end the
// restore without error and without changing the local file. The listing is
// never repeated within one call, so the IDs shown to the user stay valid.
func (s *SyncService) Restore(path string, prompter Prompter) (*RestoreResult, error) {
	run := &restoreRun{svc: s, state: StateInit, result: &RestoreResult{State: StateInit}}
	s.logger.Info("restore started", "path", path)

	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	run.advance(StateListed)

	if len(entries) == 0 {
		return run.abort(NothingToRestore), nil
	}

	answer, err := prompter.SelectVersion(entries)
	if err != nil {
		return nil, errors.Wrap(err, "reading selection")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return run.abort(NothingToRestore), nil
	}
	if idx < 0 || idx >= len(entries) {
		return run.abort(NonExistentID), nil
	}
	entry := entries[idx]
	run.result.Entry = entry
	run.advance(StateSelected)

	answer, err = prompter.ConfirmOverwrite(path, entry)
	if err != nil {
		return nil, errors.Wrap(err, "reading confirmation")
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return run.abort(Declined), nil
	}
	run.advance(StateConfirmed)

	// Decode before downloading: a name without a usable timestamp must not
	// replace the local file at all.
	modTime, err := s.codec.DecodeTime(entry.Name)
	if err != nil {
		return nil, errors.Wrap(err, "reading backup time")
	}

	var buf bytes.Buffer
	if err := s.backend.Download(entry.Name, &buf); err != nil {
		return nil, errors.Wrapf(err, "downloading %s", entry.Name)
	}
	if err := s.fsmgr.WriteFile(path, buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "writing local file")
	}
	run.advance(StateDownloaded)
	s.logger.Info("version downloaded", "version", entry.Name, "path", path, "size", buf.Len())

	run.result.ModTime = modTime
	if err := s.fsmgr.Chtimes(path, modTime, modTime); err != nil {
		s.logger.Error("setting file times failed, content was restored", "path", path, "error", err)
		run.result.TimestampErr = err
	} else {
		run.advance(StateTimestampFixed)
		s.logger.Info("file times restored", "path", path, "mtime", modTime.Format(time.DateTime))
	}

	run.advance(StateDone)
	run.result.Outcome = Restored
	return run.result, nil
}
