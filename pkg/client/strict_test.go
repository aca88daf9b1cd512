package client

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/wire"
)

// TestStrictExitsOnFatal exercises the Strict flag's documented behavior:
// a FATAL reply exits the process with the server's errno rather than
// returning an error. osExit is swapped out for the duration of the test
// so the test binary itself keeps running.
func TestStrictExitsOnFatal(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close() })

	go func() {
		_ = wire.WriteOutcome(serverSide, wire.Fatal)
		_ = wire.WriteErrno(serverSide, wire.ErrnoOutOfMemory)
	}()

	var exitCode int
	var exited bool

	original := osExit
	osExit = func(code int) { exited = true; exitCode = code }
	t.Cleanup(func() { osExit = original })

	cl := NewForTesting(clientSide)
	cl.Strict = true

	_, _ = cl.readOutcome()

	require.True(t, exited)
	require.Equal(t, wire.ErrnoOutOfMemory, exitCode)
}

// TestNonStrictReturnsErrorOnFatal confirms the default (non-strict)
// behavior is unchanged: a FATAL reply returns ErrFatal instead of
// exiting the process.
func TestNonStrictReturnsErrorOnFatal(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close() })

	go func() {
		_ = wire.WriteOutcome(serverSide, wire.Fatal)
		_ = wire.WriteErrno(serverSide, wire.ErrnoOutOfMemory)
	}()

	cl := NewForTesting(clientSide)

	_, err := cl.readOutcome()
	require.ErrorIs(t, err, ErrFatal)
}
