package cache

import "fmt"

// LockFile gives client exclusive write access to name. See §4.2.6. If
// client already holds the lock this is a no-op success; if another
// client holds it this fails with ErrPermissionDenied rather than
// blocking — callers that want to wait retry the request themselves
// (this is what pkg/client's lock helper does).
func (c *Cache) LockFile(name string, client ClientID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.files[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	e.mu.RLock()
	notOpener := !e.isOpener(client)
	alreadyLocker := e.locker == client
	heldByOther := e.locker != NoClient && e.locker != client
	e.mu.RUnlock()

	if notOpener {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}
	if alreadyLocker {
		return nil
	}
	if heldByOther {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-validate after the read->write upgrade: another client holding
	// the same global read lock may have locked this file first.
	if !e.isOpener(client) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}
	if e.locker == client {
		return nil
	}
	if e.locker != NoClient {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	e.locker = client
	e.writer = NoClient
	e.touch(c.now())

	return nil
}

// UnlockFile releases client's exclusive lock on name. See §4.2.7.
func (c *Cache) UnlockFile(name string, client ClientID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.files[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	e.mu.RLock()
	notOpener := !e.isOpener(client)
	notLocker := e.locker != client
	e.mu.RUnlock()

	if notOpener {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}
	if notLocker {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-validate after the read->write upgrade.
	if !e.isOpener(client) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}
	if e.locker != client {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	e.locker = NoClient
	e.writer = NoClient
	e.touch(c.now())

	return nil
}
