package cache

import "fmt"

// RemoveFile deletes name from the cache entirely. See §4.2.9.
func (c *Cache) RemoveFile(name string, client ClientID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.files[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	if !e.isOpener(client) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	if e.locker != client {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	c.curBytes -= len(e.content)
	c.curFiles--
	c.removeFromOrder(name)
	delete(c.files, name)

	return nil
}
