// Package keylock provides mutual exclusion scoped to an int64 key, used to
// serialize operations on a single order, product, or wallet without a
// global lock.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock hands out one mutex per key. Entries are dropped once the last
// holder releases, so the map does not grow with the key space.
type KeyLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func New() *KeyLock {
	return &KeyLock{entries: map[int64]*entry{}}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (l *KeyLock) Lock(key int64) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
