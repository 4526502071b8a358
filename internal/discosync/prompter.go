package discosync

// Prompter collects the two answers a restore needs from the user.
// Answers are returned as typed; the service validates them.
type Prompter interface {
	// SelectVersion shows entries with zero-based IDs and returns the chosen ID as text.
	SelectVersion(entries []RemoteEntry) (string, error)

	// ConfirmOverwrite asks whether the local file at path may be replaced
	// by entry and returns the answer as text.
	ConfirmOverwrite(path string, entry RemoteEntry) (string, error)
}
