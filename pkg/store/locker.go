package store

import (
	"context"
	"sync"
)

// Locker serialises read-modify-write sequences on a single key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NopLocker never blocks. Concurrent callers on the same key interleave
// freely between their check and their write.
type NopLocker struct{}

func (NopLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

type keyEntry struct {
	ch   chan struct{}
	refs int
}

// KeyMutex is an in-process per-key mutex. Entries are reference counted and
// dropped once the last holder or waiter releases them.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*keyEntry)}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *KeyMutex) release(key string, e *keyEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// size reports the number of live entries; used by tests.
func (k *KeyMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// NewLocker returns a KeyMutex when strict is true and a NopLocker otherwise.
func NewLocker(strict bool) Locker {
	if strict {
		return NewKeyMutex()
	}
	return NopLocker{}
}
