package backend

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// MemoryBackend is an in-memory implementation of the Backend interface.
// It lists versions in insertion order and hands out an increasing revision
// number on every upload. Safe for concurrent use.
type MemoryBackend struct {
	mu      sync.RWMutex
	order   []string
	content map[string][]byte
	revs    map[string]string
	nextRev int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		content: make(map[string][]byte),
		revs:    make(map[string]string),
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.content[name]
	return ok, nil
}

func (m *MemoryBackend) List() ([]discosync.RemoteEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]discosync.RemoteEntry, 0, len(m.order))
	for _, name := range m.order {
		entries = append(entries, discosync.RemoteEntry{Name: name, Rev: m.revs[name]})
	}
	return entries, nil
}

// Upload stores a copy of content. Overwriting keeps the original list position.
func (m *MemoryBackend) Upload(name string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.content[name]; !ok {
		m.order = append(m.order, name)
	}
	m.content[name] = append([]byte(nil), content...)
	m.nextRev++
	m.revs[name] = strconv.Itoa(m.nextRev)
	return nil
}

func (m *MemoryBackend) Download(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.content[name]
	if !ok {
		return discosync.MarkNotFound(fmt.Errorf("no version named %s", name), "memory download")
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// Compile-time check that MemoryBackend implements discosync.Backend
var _ discosync.Backend = (*MemoryBackend)(nil)
