package cache

import (
	"time"

	"github.com/dkroeger/fcached/internal/rwmutex"
)

// ClientID identifies a connected client. It is scoped to one connection;
// on a real server it equals that connection's file descriptor number, so
// it is always positive. NoClient represents the absence of a client
// (used for the locker/writer fields when no client holds the slot).
type ClientID int

// NoClient is the sentinel value meaning "no client".
const NoClient ClientID = 0

// entry is one file's state. Every mutable field is guarded by mu; mu
// itself is acquired under the cache's global lock per the locking
// discipline table in the protocol design (read for most operations,
// upgraded to write when the operation mutates state).
type entry struct {
	name    string
	content []byte

	mu *rwmutex.RWMutex

	locker  ClientID
	writer  ClientID
	openers map[ClientID]struct{}

	lastAccess  time.Time
	accessCount uint64
}

func newEntry(name string) *entry {
	return &entry{
		name:    name,
		content: []byte{},
		mu:      rwmutex.New(),
		openers: make(map[ClientID]struct{}),
	}
}

// isOpener reports whether client has the file open.
func (e *entry) isOpener(client ClientID) bool {
	_, ok := e.openers[client]
	return ok
}

// touch updates the usage counters that drive LRU/LFU selection. Callers
// must hold e.mu for writing.
func (e *entry) touch(now time.Time) {
	e.lastAccess = now
	e.accessCount++
}

// releaseClient removes client from this entry's openers and clears its
// locker/writer slots if it held them. Callers must hold e.mu for
// writing, or the cache's global lock for writing (which excludes every
// other holder of e.mu). Reports whether anything changed.
func (e *entry) releaseClient(client ClientID) bool {
	changed := false

	if e.isOpener(client) {
		delete(e.openers, client)
		changed = true
	}

	if e.locker == client {
		e.locker = NoClient
		changed = true
	}

	if e.writer == client {
		e.writer = NoClient
		changed = true
	}

	return changed
}
