// Package cache implements the concurrent, bounded, in-memory file store
// at the heart of fcached: a name-indexed table of file entries, each
// with its own reader/writer lock, guarded overall by a global
// reader/writer lock, with a selectable eviction policy (FIFO/LRU/LFU)
// enforced when the file-count or byte-total limits would otherwise be
// exceeded.
package cache

import (
	"time"

	"github.com/dkroeger/fcached/internal/rwmutex"
)

// Options configures a new Cache.
type Options struct {
	// MaxFiles is the maximum number of files the cache may hold
	// simultaneously.
	MaxFiles int

	// MaxBytes is the maximum total content size, across all files, the
	// cache may hold simultaneously.
	MaxBytes int

	// Policy selects the eviction policy used when a capacity limit
	// would otherwise be exceeded.
	Policy Policy

	// Now, if set, is used in place of time.Now for usage-counter
	// timestamps. Tests use this to make LRU ordering deterministic.
	Now func() time.Time
}

// Stats is a point-in-time snapshot of the cache's counters.
type Stats struct {
	CurrentFiles int
	CurrentBytes int
	PeakFiles    int
	PeakBytes    int
	Evictions    uint64
	MaxFiles     int
	MaxBytes     int
	Policy       Policy
}

// NamedContent pairs a file's name with a copy of its content. It is the
// shape returned by both ReadNFiles (retrieved files) and the eviction
// loop (victims), since both describe the same thing: a snapshot of a
// file the caller must hand back to the client.
type NamedContent struct {
	Name    string
	Content []byte
}

// Victim is a NamedContent describing one file removed by the eviction
// policy so the caller (ultimately the worker, then the client) can
// persist its content externally before it is lost.
type Victim = NamedContent

// Cache is the file-indexed, bounded, concurrent file store.
type Cache struct {
	mu *rwmutex.RWMutex

	files map[string]*entry
	order []string // insertion order; needed for FIFO and stable tie-break

	policy   Policy
	maxFiles int
	maxBytes int

	curFiles int
	curBytes int

	peakFiles int
	peakBytes int
	evictions uint64

	now func() time.Time
}

// New constructs a Cache per opts. MaxFiles and MaxBytes must be positive
// and Policy must be one of FIFO, LRU, or LFU.
func New(opts Options) *Cache {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		mu:       rwmutex.New(),
		files:    make(map[string]*entry),
		policy:   opts.Policy,
		maxFiles: opts.MaxFiles,
		maxBytes: opts.MaxBytes,
		now:      now,
	}
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		CurrentFiles: c.curFiles,
		CurrentBytes: c.curBytes,
		PeakFiles:    c.peakFiles,
		PeakBytes:    c.peakBytes,
		Evictions:    c.evictions,
		MaxFiles:     c.maxFiles,
		MaxBytes:     c.maxBytes,
		Policy:       c.policy,
	}
}

// Names returns the names currently resident in the cache, in insertion
// order. Used for the residual-name listing logged at shutdown.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.order))
	copy(out, c.order)

	return out
}

// updatePeaks must be called with c.mu held for writing.
func (c *Cache) updatePeaks() {
	if c.curFiles > c.peakFiles {
		c.peakFiles = c.curFiles
	}
	if c.curBytes > c.peakBytes {
		c.peakBytes = c.curBytes
	}
}

// removeFromOrder deletes name from the ordered sequence. Callers must
// hold c.mu for writing.
func (c *Cache) removeFromOrder(name string) {
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
