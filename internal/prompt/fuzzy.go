package prompt

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// findFunc picks one of entries, shown through label, and returns its index.
type findFunc func(entries []discosync.RemoteEntry, label func(i int) string) (int, error)

// FuzzyPrompter selects the version with an interactive fuzzy finder. The
// chosen index is returned as text so the restore flow validates it the
// same way as typed input. Confirmation is read line by line.
type FuzzyPrompter struct {
	line  *LinePrompter
	codec *discosync.VersionCodec
	find  findFunc
}

// NewFuzzyPrompter creates a fuzzy prompter that confirms through line.
func NewFuzzyPrompter(line *LinePrompter, codec *discosync.VersionCodec) *FuzzyPrompter {
	if codec == nil {
		codec = discosync.LocalVersionCodec()
	}
	return &FuzzyPrompter{line: line, codec: codec, find: fuzzyFind}
}

func fuzzyFind(entries []discosync.RemoteEntry, label func(i int) string) (int, error) {
	return fuzzyfinder.Find(
		entries,
		label,
		fuzzyfinder.WithHeader("Select the backup to restore"),
	)
}

// SelectVersion returns "" when the finder is aborted, which the restore
// flow reports as nothing to restore.
func (p *FuzzyPrompter) SelectVersion(entries []discosync.RemoteEntry) (string, error) {
	idx, err := p.find(entries, func(i int) string {
		return fmt.Sprintf("%3d  %s  (%s)", i, entries[i].Name, entryTime(entries[i], p.codec))
	})
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", errors.Wrap(err, "interactive selection failed")
	}
	return strconv.Itoa(idx), nil
}

func (p *FuzzyPrompter) ConfirmOverwrite(path string, entry discosync.RemoteEntry) (string, error) {
	return p.line.ConfirmOverwrite(path, entry)
}

var _ discosync.Prompter = (*FuzzyPrompter)(nil)

// New returns the prompter for the restore command. The fuzzy finder is used
// only when pick is set and in is a terminal.
func New(pick bool, in *os.File, out io.Writer, codec *discosync.VersionCodec) discosync.Prompter {
	line := NewLinePrompter(in, out, codec)
	if pick && term.IsTerminal(int(in.Fd())) {
		return NewFuzzyPrompter(line, codec)
	}
	return line
}
