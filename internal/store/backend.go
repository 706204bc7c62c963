// Package store persists the client session behind typed accessors.
//
// Backends only know about string keys and values. SessionStore is the one
// place that knows which keys exist and how their values are encoded.
package store

import (
	"context"
	"sort"
	"sync"
)

// Key names one durable storage slot.
type Key string

const (
	KeyAccessToken   Key = "token"
	KeyRefreshToken  Key = "refresh_token"
	KeyUser          Key = "user"
	KeyPermissions   Key = "permissions"
	KeyIsAuth        Key = "is_auth"
	KeyPreferredRole Key = "preferred_role_id"
	KeyRefreshTime   Key = "refresh_time"
	KeyResetPassword Key = "reset_password_page"
	KeyChartView     Key = "chart_view"
	KeyValidation    Key = "validation"
)

// sessionKeys are removed on logout. KeyPreferredRole is deliberately absent.
var sessionKeys = []Key{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUser,
	KeyPermissions,
	KeyIsAuth,
	KeyRefreshTime,
	KeyResetPassword,
	KeyChartView,
	KeyValidation,
}

// Batch is a set of writes applied atomically. A key in both Set and Delete
// ends up deleted.
type Batch struct {
	Set    map[Key]string
	Delete []Key
}

func (b Batch) empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

// Backend is durable key/value storage for one session namespace.
//
// Apply must be atomic: concurrent readers see either none or all of a batch.
type Backend interface {
	Load(ctx context.Context, key Key) (value string, ok bool, err error)
	Apply(ctx context.Context, batch Batch) error
	Close() error
}

// MemoryBackend keeps the session in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[Key]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[Key]string)}
}

func (m *MemoryBackend) Load(_ context.Context, key Key) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Apply(_ context.Context, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	applyBatch(m.values, batch)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryBackend) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.values)
}

func (m *MemoryBackend) Close() error { return nil }

func applyBatch(values map[Key]string, batch Batch) {
	for k, v := range batch.Set {
		values[k] = v
	}
	for _, k := range batch.Delete {
		delete(values, k)
	}
}

func sortedKeys(values map[Key]string) []Key {
	keys := make([]Key, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
