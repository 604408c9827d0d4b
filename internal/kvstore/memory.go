package kvstore

import (
	"context"
	"sync"
)

// MemoryMedium keeps values in a map. A positive quota caps the total size of
// keys plus values in bytes, the way browser local storage caps an origin.
type MemoryMedium struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

// NewMemoryMedium creates an in-memory medium. quota <= 0 means unlimited.
func NewMemoryMedium(quota int) *MemoryMedium {
	return &MemoryMedium{
		data:  make(map[string]string),
		quota: quota,
	}
}

// Get returns the value stored under key.
func (m *MemoryMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, wrap("get", key, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	return value, ok, nil
}

// Set replaces the value under key, or fails without side effects when the
// write would push usage past the quota.
func (m *MemoryMedium) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return wrap("set", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.data[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return wrap("set", key, ErrQuotaExceeded)
	}

	m.data[key] = value
	m.used = used
	return nil
}

// Delete removes key. Missing keys are ignored.
func (m *MemoryMedium) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return wrap("delete", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

// Used reports the bytes currently counted against the quota.
func (m *MemoryMedium) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
