package cache

import "fmt"

// ReadFile returns a copy of name's content for client. See §4.2.2.
func (c *Cache) ReadFile(name string, client ClientID) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.files[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	e.mu.RLock()
	locked := e.locker != NoClient && e.locker != client
	isOpener := e.isOpener(client)
	e.mu.RUnlock()

	if locked {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}
	if !isOpener {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-validate after the upgrade: another client may have acquired the
	// lock, or closed this client's opener slot, while we were
	// transitioning from read to write.
	if e.locker != NoClient && e.locker != client {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}
	if !e.isOpener(client) {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	content := make([]byte, len(e.content))
	copy(content, e.content)

	e.writer = NoClient
	e.touch(c.now())

	return content, nil
}

// ReadNFiles reads up to n files in insertion order, skipping files locked
// by another client. If n <= 0 or n exceeds the current file count, every
// file is attempted. See §4.2.3: this always succeeds, even if every file
// was skipped; an empty result is valid.
func (c *Cache) ReadNFiles(n int, client ClientID) []NamedContent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || n > c.curFiles {
		n = c.curFiles
	}

	names := make([]string, len(c.order))
	copy(names, c.order)

	results := make([]NamedContent, 0, n)
	attempts := 0

	for _, name := range names {
		if attempts >= n {
			break
		}

		e, exists := c.files[name]
		if !exists {
			continue
		}

		attempts++

		e.mu.RLock()
		locked := e.locker != NoClient && e.locker != client
		e.mu.RUnlock()

		if locked {
			continue // skipped, counted as a failed attempt
		}

		e.mu.Lock()
		// Re-validate: the lock could have been taken by another client
		// between the read check above and this write acquisition.
		if e.locker != NoClient && e.locker != client {
			e.mu.Unlock()
			continue
		}

		content := make([]byte, len(e.content))
		copy(content, e.content)
		e.writer = NoClient
		e.touch(c.now())
		e.mu.Unlock()

		results = append(results, NamedContent{Name: name, Content: content})
	}

	return results
}
