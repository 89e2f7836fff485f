package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
)

// MemoryPersistence is an in-memory IKeyValueStore. Data is lost when the
// process exits. Values are copied on the way in and out.
type MemoryPersistence struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ persistence.IKeyValueStore = (*MemoryPersistence)(nil)

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		data: make(map[string][]byte),
	}
}

func (m *MemoryPersistence) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, value...), nil
}

func (m *MemoryPersistence) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.data[key] = append([]byte{}, value...)
	return nil
}

func (m *MemoryPersistence) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.data, key)
	return nil
}

func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}
