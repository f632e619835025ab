package eventcache

import (
	"context"
	"sync"

	"github.com/gabapcia/chainscan/internal/event"
)

// MemoryStorage keeps snapshots in process memory.
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[event.Type]Snapshot
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snapshots: make(map[event.Type]Snapshot)}
}

func (m *MemoryStorage) SaveSnapshot(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.Message.Event] = s
	return nil
}

func (m *MemoryStorage) LoadSnapshot(_ context.Context, typ event.Type) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[typ]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return s, nil
}
