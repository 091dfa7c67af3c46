package persist

import (
	"context"
	"strconv"
	"sync"
)

// MemoryBackend is an in-process Backend. When capacity is positive, the
// bytes stored per owner (see Owner) may not exceed it.
type MemoryBackend struct {
	mu       sync.Mutex
	capacity int
	data     map[string][]byte
	writes   int
}

// NewMemoryBackend creates a MemoryBackend. capacity <= 0 is unlimited.
func NewMemoryBackend(capacity int) *MemoryBackend {
	return &MemoryBackend{capacity: capacity, data: make(map[string][]byte)}
}

func (m *MemoryBackend) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capacity > 0 && m.usage(Owner(key))-len(m.data[key])+len(data) > m.capacity {
		return ErrQuotaExceeded
	}
	m.data[key] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Incr increments the integer stored at key.
func (m *MemoryBackend) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.data[key]; ok {
		var err error
		if n, err = strconv.ParseInt(string(v), 10, 64); err != nil {
			return 0, err
		}
	}
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// Writes returns the number of successful writes.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryBackend) usage(owner string) int {
	total := 0
	for k, v := range m.data {
		if Owner(k) == owner {
			total += len(v)
		}
	}
	return total
}
