package discosync

import "github.com/cockroachdb/errors"

// List returns the remote versions in remote-listing order, dropping entries
// without a name. The returned slice is the sequence IDs refer to.
func (s *SyncService) List() ([]RemoteEntry, error) {
	entries, err := s.backend.List()
	if err != nil {
		return nil, errors.Wrap(err, "listing remote versions")
	}

	listed := make([]RemoteEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		listed = append(listed, e)
	}

	s.logger.Debug("listed remote versions", "count", len(listed))
	return listed, nil
}
