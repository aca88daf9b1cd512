package cache

// selectVictim picks one file to evict under c.policy and removes its name
// from the ordered sequence, leaving the entry in c.files for the caller
// to remove once it has copied out its content. Callers must hold c.mu
// for writing; eviction never runs concurrently with any other cache
// operation because it is only invoked from inside WriteFile/AppendToFile,
// which already hold the global write lock.
func (c *Cache) selectVictim() (string, bool) {
	if len(c.order) == 0 {
		return "", false
	}

	var victim string

	switch c.policy {
	case FIFO:
		victim = c.order[0]

	case LRU:
		victim = c.order[0]
		best := c.files[victim].lastAccess
		for _, name := range c.order[1:] {
			if t := c.files[name].lastAccess; t.Before(best) {
				victim = name
				best = t
			}
		}

	case LFU:
		victim = c.order[0]
		best := c.files[victim].accessCount
		for _, name := range c.order[1:] {
			if n := c.files[name].accessCount; n < best {
				victim = name
				best = n
			}
		}

	default:
		victim = c.order[0]
	}

	c.removeFromOrder(victim)

	return victim, true
}

// evictOne removes one victim from the cache entirely (map, order
// sequence, and byte/file counters) and returns its name and a copy of its
// content. Callers must hold c.mu for writing.
func (c *Cache) evictOne() (Victim, bool) {
	name, ok := c.selectVictim()
	if !ok {
		return Victim{}, false
	}

	e := c.files[name]
	content := make([]byte, len(e.content))
	copy(content, e.content)

	delete(c.files, name)
	c.curFiles--
	c.curBytes -= len(e.content)
	c.evictions++

	return Victim{Name: name, Content: content}, true
}

// evictUntilFits runs the eviction loop used by WriteFile/AppendToFile:
// evict victims, one per iteration, until enough room exists for an
// additional needed bytes, or the cache is empty. If target is evicted
// along the way, targetEvicted is true and the loop stops immediately
// (the caller reports ErrEvicted). Callers must hold c.mu for writing.
func (c *Cache) evictUntilFits(target string, needed int) (victims []Victim, targetEvicted bool) {
	for c.curBytes+needed > c.maxBytes {
		v, ok := c.evictOne()
		if !ok {
			break
		}

		victims = append(victims, v)

		if v.Name == target {
			return victims, true
		}
	}

	return victims, false
}
