package discosync

import "io"

// RemoteEntry is one version seen when listing the backup location.
type RemoteEntry struct {
	// Name is the version name, e.g. "discobase.db_2023-11-14_221320".
	Name string

	// Rev is a backend-specific revision token. Empty when the backend has none.
	Rev string
}

// Backend provides uniform access to a remote backup location.
// Implementations translate their native faults into the error kinds in
// errors.go before returning; callers never inspect backend-native types.
type Backend interface {
	// Exists reports whether a version with this name is stored remotely.
	// A missing version is (false, nil), never an error.
	Exists(name string) (bool, error)

	// List returns the stored versions in the order the remote returns them.
	// Folder or container entries are already removed.
	List() ([]RemoteEntry, error)

	// Upload stores content under name, overwriting any existing object.
	Upload(name string, content []byte) error

	// Download writes the content stored under name to w.
	Download(name string, w io.Writer) error
}

// Describer is implemented by backends that can name themselves for logs
// and operation history.
type Describer interface {
	Name() string
}

// BackendName returns b's name if it has one, otherwise "backend".
func BackendName(b Backend) string {
	if d, ok := b.(Describer); ok {
		return d.Name()
	}
	return "backend"
}
