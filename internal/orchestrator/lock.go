package orchestrator

import "sync"

// keyedMutex serialises operations per user, the unit of isolation the
// requires for recordResponse/startSession/completeSession. Entries are
// never removed: the key space is bounded by the active user count, which
// is small enough that holding one mutex per user for the process lifetime
// is cheaper than the bookkeeping needed to garbage-collect them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lockFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the per-key lock and returns a function that releases it.
func (k *keyedMutex) Lock(key string) func() {
	m := k.lockFor(key)
	m.Lock()
	return m.Unlock
}
