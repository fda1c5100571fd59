// Package keyedmutex provides a mutex per string key. An entry is dropped
// once no goroutine holds or waits for it.
package keyedmutex

import "sync"

// Mutex serialises work per key. The zero value is not usable; call New.
type Mutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty keyed mutex.
func New() *Mutex {
	return &Mutex{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key and returns its release function.
func (k *Mutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Mutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
