package util

import "sync"

// KeyMutex serializes work per key. Transitions for one ticket must
// not interleave, while tickets with different ids stay independent.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates an empty key mutex.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key, blocking while another holder owns it.
func (k *KeyMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for key. Entries are dropped once the last
// waiter is gone so the map does not grow with ticket count.
func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
