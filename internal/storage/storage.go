// Package storage provides the key-value backends that persisted collections
// are written to.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned by every call on an Unavailable store.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a durable key-value text store.
//
// Get returns ok=false for an absent key. Implementations must be safe for
// concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Storage. Contents are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Unavailable stands in when no backend could be opened. Reads and writes
// fail, which collections treat as always-empty storage.
type Unavailable struct {
	Cause error
}

func (u Unavailable) err() error {
	if u.Cause == nil {
		return ErrUnavailable
	}
	return errors.Join(ErrUnavailable, u.Cause)
}

func (u Unavailable) Get(context.Context, string) (string, bool, error) { return "", false, u.err() }
func (u Unavailable) Set(context.Context, string, string) error         { return u.err() }
func (u Unavailable) Delete(context.Context, string) error              { return u.err() }

var (
	_ Storage = (*Memory)(nil)
	_ Storage = Unavailable{}
)
