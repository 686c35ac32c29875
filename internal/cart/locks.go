package cart

import "sync"

// ownerLocks serializes mutations per cart owner within this process. Combined
// with the single transaction each mutation runs in, this closes the
// read-modify-write window between two overlapping requests for one owner.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: map[string]*ownerLock{}}
}

// Acquire blocks until the owner's lock is held and returns the release func.
func (l *ownerLocks) Acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &ownerLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
