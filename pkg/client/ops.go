package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkroeger/fcached/internal/wire"
)

// Flags is the OPEN operation's bitmask argument.
type Flags = wire.Flags

// Flag bits accepted by Open.
const (
	FlagCreate = wire.FlagCreate
	FlagLock   = wire.FlagLock
)

// NamedContent pairs a retrieved file's name with its content, the shape
// ReadN and the eviction list returned by Write/Append share.
type NamedContent struct {
	Name    string
	Content []byte
}

// Open issues OPEN for path with the given flags.
func (c *Client) Open(path string, flags Flags) error {
	c.log("OPEN %s flags=%d", path, flags)

	frame, err := wire.EncodeOpen(path, flags)
	if err != nil {
		return err
	}

	if err := c.send(frame); err != nil {
		return err
	}

	_, err = c.readOutcome()

	return err
}

// CloseFile issues CLOSE for path. (Named to avoid colliding with
// Client.Close, which closes the connection itself.)
func (c *Client) CloseFile(path string) error {
	c.log("CLOSE %s", path)

	frame, err := wire.EncodeClose(path)
	if err != nil {
		return err
	}

	if err := c.send(frame); err != nil {
		return err
	}

	_, err = c.readOutcome()

	return err
}

// Read issues READ for path. save is carried in the request frame's
// save-flag token; the server decodes it but does not act on it, and
// persisting the result to disk, if requested, is the caller's
// responsibility (see internal/fsutil).
func (c *Client) Read(path string, save bool) ([]byte, error) {
	c.log("READ %s save=%t", path, save)

	frame, err := wire.EncodeRead(path, save)
	if err != nil {
		return nil, err
	}

	if err := c.send(frame); err != nil {
		return nil, err
	}

	outcome, err := c.readOutcome()

	size, sizeErr := wire.ReadSizeField(c.conn)
	if sizeErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, sizeErr)
	}

	content, payloadErr := wire.ReadPayload(c.conn, size)
	if payloadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, payloadErr)
	}

	if outcome != wire.Success {
		return nil, err
	}

	return content, nil
}

// ReadN issues READ_N for n files (n<=0 means "all").
func (c *Client) ReadN(n int) ([]NamedContent, error) {
	c.log("READ_N %d", n)

	frame, err := wire.EncodeReadN(n)
	if err != nil {
		return nil, err
	}

	if err := c.send(frame); err != nil {
		return nil, err
	}

	outcome, err := c.readOutcome()

	count, countErr := wire.ReadSizeField(c.conn)
	if countErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, countErr)
	}

	results := make([]NamedContent, 0, count)

	for i := 0; i < count; i++ {
		name, pathErr := wire.ReadPathFrame(c.conn)
		if pathErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, pathErr)
		}

		size, sizeErr := wire.ReadSizeField(c.conn)
		if sizeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, sizeErr)
		}

		content, payloadErr := wire.ReadPayload(c.conn, size)
		if payloadErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, payloadErr)
		}

		results = append(results, NamedContent{Name: name, Content: content})
	}

	if outcome != wire.Success {
		return nil, err
	}

	return results, nil
}

// Write issues WRITE for path with content, returning any victims the
// server evicted to make room.
func (c *Client) Write(path string, content []byte) ([]NamedContent, error) {
	c.log("WRITE %s len=%d", path, len(content))

	return c.writeOrAppend(wire.OpWrite, path, content)
}

// Append issues APPEND for path with buf, returning any victims the
// server evicted to make room.
func (c *Client) Append(path string, buf []byte) ([]NamedContent, error) {
	c.log("APPEND %s len=%d", path, len(buf))

	return c.writeOrAppend(wire.OpAppend, path, buf)
}

func (c *Client) writeOrAppend(op wire.Op, path string, content []byte) ([]NamedContent, error) {
	var (
		frame []byte
		err   error
	)

	switch op {
	case wire.OpWrite:
		frame, err = wire.EncodeWriteHeader(path, len(content))
	case wire.OpAppend:
		frame, err = wire.EncodeAppendHeader(path, len(content))
	}

	if err != nil {
		return nil, err
	}

	if err := c.send(frame); err != nil {
		return nil, err
	}

	if err := wire.WritePayload(c.conn, content); err != nil {
		return nil, err
	}

	outcome, replyErr := c.readOutcome()

	count, countErr := wire.ReadSizeField(c.conn)
	if countErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, countErr)
	}

	victims := make([]NamedContent, 0, count)

	for i := 0; i < count; i++ {
		name, pathErr := wire.ReadPathFrame(c.conn)
		if pathErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, pathErr)
		}

		size, sizeErr := wire.ReadSizeField(c.conn)
		if sizeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, sizeErr)
		}

		victimContent, payloadErr := wire.ReadPayload(c.conn, size)
		if payloadErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, payloadErr)
		}

		victims = append(victims, NamedContent{Name: name, Content: victimContent})
	}

	if outcome != wire.Success {
		return victims, replyErr
	}

	return victims, nil
}

// LockRetryInterval is how long Lock waits between retries while the
// server reports permission-denied. The engine never blocks internally
// (spec §4.2.6); the client library is the one that loops.
const LockRetryInterval = 20 * time.Millisecond

// Lock issues LOCK for path, retrying internally while the server
// returns permission-denied. Any other error (including no-such-entry or
// access-denied) surfaces immediately.
func (c *Client) Lock(path string) error {
	c.log("LOCK %s", path)

	for {
		frame, err := wire.EncodeLock(path)
		if err != nil {
			return err
		}

		if err := c.send(frame); err != nil {
			return err
		}

		_, err = c.readOutcome()
		if err == nil {
			return nil
		}

		var serverErr *ServerError
		if !errors.As(err, &serverErr) || serverErr.Errno != wire.ErrnoPermissionDenied {
			return err
		}

		time.Sleep(LockRetryInterval)
	}
}

// Unlock issues UNLOCK for path.
func (c *Client) Unlock(path string) error {
	c.log("UNLOCK %s", path)

	frame, err := wire.EncodeUnlock(path)
	if err != nil {
		return err
	}

	if err := c.send(frame); err != nil {
		return err
	}

	_, err = c.readOutcome()

	return err
}

// Remove issues REMOVE for path.
func (c *Client) Remove(path string) error {
	c.log("REMOVE %s", path)

	frame, err := wire.EncodeRemove(path)
	if err != nil {
		return err
	}

	if err := c.send(frame); err != nil {
		return err
	}

	_, err = c.readOutcome()

	return err
}

// Shutdown issues the SHUTDOWN op, after which the connection is no
// longer usable.
func (c *Client) Shutdown() error {
	c.log("SHUTDOWN")

	frame, err := wire.EncodeShutdown()
	if err != nil {
		return err
	}

	if err := c.send(frame); err != nil {
		return err
	}

	_, err = c.readOutcome()

	return err
}
