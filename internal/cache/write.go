package cache

import "fmt"

// WriteFile replaces name's content with content for client. See §4.2.4.
// content length is added to the byte total verbatim, without
// subtracting the entry's previous size. The writer privilege this
// requires is granted only by OpenFile with CREATE|LOCK and is cleared by
// the write itself (and by any other mutating operation), so a second
// write to the same file is rejected with ErrAccessDenied and the entry
// being written still has the empty content it was created with.
//
// On success, victims lists any files evicted to make room. On
// ErrEvicted, victims still lists everything evicted before the target
// itself was chosen, so the caller can still persist them externally.
func (c *Cache) WriteFile(name string, content []byte, client ClientID) (victims []NamedContent, err error) {
	if len(content) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrFileTooBig, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.files[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	if e.writer != client {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	if c.curBytes+len(content) > c.maxBytes {
		var targetEvicted bool
		victims, targetEvicted = c.evictUntilFits(name, len(content))
		if targetEvicted {
			return victims, fmt.Errorf("%w: %s", ErrEvicted, name)
		}
	}

	e.content = content
	e.writer = NoClient
	c.curBytes += len(content)
	c.updatePeaks()

	return victims, nil
}

// AppendToFile grows name's content by buf for client. See §4.2.5. An
// empty buf is a no-op success.
func (c *Cache) AppendToFile(name string, buf []byte, client ClientID) (victims []NamedContent, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.files[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchEntry, name)
	}

	if !e.isOpener(client) {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, name)
	}

	if e.locker != NoClient && e.locker != client {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	if len(buf) == 0 {
		return nil, nil
	}

	if c.curBytes+len(buf) > c.maxBytes {
		var targetEvicted bool
		victims, targetEvicted = c.evictUntilFits(name, len(buf))
		if targetEvicted {
			return victims, fmt.Errorf("%w: %s", ErrEvicted, name)
		}
	}

	e.content = append(e.content, buf...)
	e.writer = NoClient
	c.curBytes += len(buf)
	c.updatePeaks()

	return victims, nil
}
