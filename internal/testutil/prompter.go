package testutil

import "github.com/JOJ0/discodos-sub001/internal/discosync"

// StubPrompter answers restore prompts with canned text and records what it was shown.
type StubPrompter struct {
	Selection    string
	Confirmation string

	SelectErr  error
	ConfirmErr error

	Shown        []discosync.RemoteEntry
	Confirmed    discosync.RemoteEntry
	SelectCalls  int
	ConfirmCalls int
}

// NewStubPrompter returns a prompter that selects selection and answers confirmation.
func NewStubPrompter(selection, confirmation string) *StubPrompter {
	return &StubPrompter{Selection: selection, Confirmation: confirmation}
}

func (p *StubPrompter) SelectVersion(entries []discosync.RemoteEntry) (string, error) {
	p.SelectCalls++
	p.Shown = append([]discosync.RemoteEntry(nil), entries...)
	return p.Selection, p.SelectErr
}

func (p *StubPrompter) ConfirmOverwrite(_ string, entry discosync.RemoteEntry) (string, error) {
	p.ConfirmCalls++
	p.Confirmed = entry
	return p.Confirmation, p.ConfirmErr
}

var _ discosync.Prompter = (*StubPrompter)(nil)
