// Package store holds the storage and locking primitives shared by the
// services: a minimal key-value repository contract with an in-memory
// implementation, and per-key lockers guarding read-modify-write sequences.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get and Delete when the key is absent.
var ErrNotFound = errors.New("store: not found")

// Store is a key-value repository.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	Put(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
	Query(ctx context.Context, match func(T) bool) ([]T, error)
}

// Memory is an in-memory Store. Query returns values in insertion order.
type Memory[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	keys  []string
	clone func(T) T
}

// NewMemory creates an empty Memory store. clone, when non-nil, is applied on
// every read and write so callers never share mutable state with the store.
func NewMemory[T any](clone func(T) T) *Memory[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Memory[T]{items: make(map[string]T), clone: clone}
}

func (m *Memory[T]) Get(ctx context.Context, key string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.clone(v), nil
}

func (m *Memory[T]) Put(ctx context.Context, key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = m.clone(value)
	return nil
}

func (m *Memory[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[key]; !ok {
		return ErrNotFound
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Query returns every value for which match returns true. A nil match
// returns everything.
func (m *Memory[T]) Query(ctx context.Context, match func(T) bool) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.keys))
	for _, k := range m.keys {
		v := m.items[k]
		if match == nil || match(v) {
			out = append(out, m.clone(v))
		}
	}
	return out, nil
}

// Len returns the number of stored values.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
