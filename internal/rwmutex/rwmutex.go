// Package rwmutex implements a reader/writer lock with writer preference:
// once a writer is waiting, new readers block until it has run. The
// standard library's sync.RWMutex makes no such guarantee, so the cache
// engine (which relies on writer preference to keep eviction from
// starving under sustained read load) needs its own.
package rwmutex

import "sync"

// RWMutex is a writer-preferring reader/writer lock. The zero value is not
// usable; construct one with New.
type RWMutex struct {
	mu   sync.Mutex
	cond *sync.Cond

	readers        int
	writerActive   bool
	writersWaiting int
}

// New returns a ready-to-use RWMutex.
func New() *RWMutex {
	m := &RWMutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the lock for writing. If other readers or a writer hold
// the lock, Lock blocks. Acquisition is uninterruptible; there is no
// cancellation support.
func (m *RWMutex) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writersWaiting++
	for m.writerActive || m.readers > 0 {
		m.cond.Wait()
	}
	m.writersWaiting--
	m.writerActive = true
}

// Unlock releases a write lock previously acquired with Lock.
func (m *RWMutex) Unlock() {
	m.mu.Lock()
	m.writerActive = false
	m.mu.Unlock()
	m.cond.Broadcast()
}

// RLock acquires the lock for reading. Multiple readers may hold the lock
// simultaneously. If a writer holds the lock, or a writer is waiting,
// RLock blocks so that writers are not starved by a steady stream of
// readers.
func (m *RWMutex) RLock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.writerActive || m.writersWaiting > 0 {
		m.cond.Wait()
	}
	m.readers++
}

// RUnlock releases a read lock previously acquired with RLock.
func (m *RWMutex) RUnlock() {
	m.mu.Lock()
	m.readers--
	wake := m.readers == 0
	m.mu.Unlock()

	if wake {
		m.cond.Broadcast()
	}
}
