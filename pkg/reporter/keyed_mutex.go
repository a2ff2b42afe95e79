package reporter

import "sync"

// keyedMutex serializes work per key while leaving different keys fully
// parallel. Lock entries are reference-counted and dropped once the last
// holder releases, so the map does not grow with instance churn.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()

	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}

	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()

	lock := k.locks[key]
	lock.refs--

	if lock.refs == 0 {
		delete(k.locks, key)
	}

	k.mu.Unlock()

	lock.mu.Unlock()
}
