package testutil

import (
	"io"
	"sync"

	"github.com/JOJ0/discodos-sub001/internal/backend"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// RecordingBackend is an in-memory backend that counts calls and can be told
// to fail. It delegates storage to backend.MemoryBackend.
type RecordingBackend struct {
	*backend.MemoryBackend

	mu sync.Mutex

	ExistsCalls   int
	ListCalls     int
	UploadCalls   int
	DownloadCalls int

	// Uploads holds the names passed to Upload, in call order.
	Uploads []string

	// Injected failures, returned instead of delegating when set.
	ExistsErr   error
	ListErr     error
	UploadErr   error
	DownloadErr error

	// Listing, when non-nil, is returned by List instead of the stored versions.
	Listing []discosync.RemoteEntry
}

// NewTestBackend creates an empty recording backend.
func NewTestBackend() *RecordingBackend {
	return &RecordingBackend{MemoryBackend: backend.NewMemoryBackend()}
}

// Seed stores content under name without counting an upload.
func (b *RecordingBackend) Seed(name string, content []byte) {
	if err := b.MemoryBackend.Upload(name, content); err != nil {
		panic(err)
	}
}

func (b *RecordingBackend) Exists(name string) (bool, error) {
	b.mu.Lock()
	b.ExistsCalls++
	err := b.ExistsErr
	b.mu.Unlock()
	if err != nil {
		return false, err
	}
	return b.MemoryBackend.Exists(name)
}

func (b *RecordingBackend) List() ([]discosync.RemoteEntry, error) {
	b.mu.Lock()
	b.ListCalls++
	err, listing := b.ListErr, b.Listing
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if listing != nil {
		return append([]discosync.RemoteEntry(nil), listing...), nil
	}
	return b.MemoryBackend.List()
}

func (b *RecordingBackend) Upload(name string, content []byte) error {
	b.mu.Lock()
	b.UploadCalls++
	b.Uploads = append(b.Uploads, name)
	err := b.UploadErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Upload(name, content)
}

func (b *RecordingBackend) Download(name string, w io.Writer) error {
	b.mu.Lock()
	b.DownloadCalls++
	err := b.DownloadErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Download(name, w)
}

var _ discosync.Backend = (*RecordingBackend)(nil)
