package cache

// ReleaseClient is run when a client disconnects: it closes every file
// the client had open and releases any lock it held, across the whole
// cache. The server does not wait for an explicit close/unlock from a
// client that is gone.
func (c *Cache) ReleaseClient(client ClientID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.files {
		e.releaseClient(client)
	}
}
