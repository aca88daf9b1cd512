// Package client implements the connection-oriented library fcachectl
// and any other external program uses to talk to fcached: one method per
// cache operation, marshaling requests and demarshaling replies exactly
// per the wire protocol in internal/wire.
package client

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/dkroeger/fcached/internal/wire"
)

// Client is one connection to an fcached server. The zero value is not
// usable; construct one with Dial.
type Client struct {
	conn net.Conn

	// Verbose, when true, writes a single-line trace of every operation
	// to standard output. Strict, when true, makes a FATAL reply exit the
	// process with the server's errno as the exit code; without it a
	// FATAL reply returns ErrFatal wrapping a *ServerError (spec §9,
	// "Global mutable state": these were process-wide flags in the
	// original; here they are fields on the handle).
	Verbose bool
	Strict  bool

	trace func(format string, args ...any)

	lastErrno int
}

// Errors returned by the client library itself, as opposed to errors
// reported by the server and carried in a reply frame.
var (
	ErrNoConnection     = errors.New("client: not connected")
	ErrAlreadyConnected = errors.New("client: already connected")
	ErrBadMessage       = errors.New("client: malformed reply from server")
	ErrFatal            = errors.New("client: server reported a fatal error")
)

// ServerError wraps a FAILURE or FATAL reply from the server with its
// errno-like field (spec §6.2).
type ServerError struct {
	Outcome wire.Outcome
	Errno   int
}

// osExit is a seam over os.Exit so tests can observe a strict-mode FATAL
// exit without killing the test binary.
var osExit = os.Exit

func (e *ServerError) Error() string {
	return fmt.Sprintf("client: server reported %s (errno %d)", e.Outcome, e.Errno)
}

// Dial connects to the fcached instance listening on the given unix
// socket path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", socketPath, err)
	}

	return &Client{conn: conn}, nil
}

// NewForTesting wraps an already-established connection without dialing,
// so tests can hand it a net.Pipe or similar in-process net.Conn.
func NewForTesting(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return fmt.Errorf("%w", ErrNoConnection)
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

// LastErrno is the errno-like field from the most recent reply: the
// server's code after a FAILURE or FATAL, 0 after a SUCCESS.
func (c *Client) LastErrno() int { return c.lastErrno }

func (c *Client) log(format string, args ...any) {
	if !c.Verbose {
		return
	}

	if c.trace != nil {
		c.trace(format, args...)
		return
	}

	fmt.Printf(format+"\n", args...)
}

// readOutcome reads the leading outcome frame and, on non-success, the
// errno frame that follows it.
func (c *Client) readOutcome() (wire.Outcome, error) {
	outcome, err := wire.ReadOutcome(c.conn)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}

	if outcome == wire.Success {
		c.lastErrno = 0
		return outcome, nil
	}

	errno, err := wire.ReadErrno(c.conn)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}

	c.lastErrno = errno

	if outcome == wire.Fatal {
		if c.Strict {
			osExit(errno)
		}

		return outcome, fmt.Errorf("%w: %w", ErrFatal, &ServerError{Outcome: outcome, Errno: errno})
	}

	return outcome, &ServerError{Outcome: outcome, Errno: errno}
}

func (c *Client) send(frame []byte) error {
	if c.conn == nil {
		return fmt.Errorf("%w", ErrNoConnection)
	}

	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %w", wire.ErrBadProtocolSize, err)
	}

	return nil
}
