package transcript

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no transcript exists under a filename.
var ErrNotFound = errors.New("transcript not found")

// Store holds uploaded transcripts keyed by filename. Re-uploading a
// filename overwrites the previous transcript (last write wins).
type Store interface {
	Put(ctx context.Context, filename, text string) (uuid.UUID, error)
	Get(ctx context.Context, filename string) (string, error)
}

type memoryEntry struct {
	id   uuid.UUID
	text string
}

// MemoryStore is the default backend: a mutex-guarded in-process map.
// Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, filename, text string) (uuid.UUID, error) {
	id := uuid.New()
	s.mu.Lock()
	s.entries[filename] = memoryEntry{id: id, text: text}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, filename string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[filename]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return entry.text, nil
}
