package cache

import "fmt"

// CloseFile removes client from name's openers. See §4.2.8. The lock, if
// client holds one, is NOT released — a client may hold a file locked
// while closed, and must explicitly unlockFile to release it.
func (c *Cache) CloseFile(name string, client ClientID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.files[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	e.mu.RLock()
	notOpener := !e.isOpener(client)
	e.mu.RUnlock()

	if notOpener {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-validate after the read->write upgrade.
	if !e.isOpener(client) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	delete(e.openers, client)
	e.writer = NoClient
	e.touch(c.now())

	return nil
}
