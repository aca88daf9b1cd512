package client_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/queue"
	"github.com/dkroeger/fcached/internal/worker"
	"github.com/dkroeger/fcached/pkg/client"
)

type fakeRegistry struct {
	conns map[int]net.Conn
}

func (f *fakeRegistry) Conn(id int) (net.Conn, bool) {
	c, ok := f.conns[id]
	return c, ok
}

// newHarness wires a worker.Pool directly to a net.Pipe, with a driver
// goroutine standing in for the dispatcher: it re-enqueues the
// connection's id every time the pool reports the request handled, so
// a single *client.Client can issue one operation after another over
// the same connection exactly as it would against a real fcached.
func newHarness(t *testing.T) *client.Client {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close() })

	const id = 42

	c := cache.New(cache.Options{MaxFiles: 10, MaxBytes: 4096, Policy: cache.FIFO})
	q := queue.New(4)
	notify := make(chan worker.Notification, 4)

	pool := &worker.Pool{
		Cache:    c,
		Queue:    q,
		Registry: &fakeRegistry{conns: map[int]net.Conn{id: serverSide}},
		Notify:   notify,
	}

	go pool.Run(0)

	go func() {
		for note := range notify {
			if note.Departed {
				q.Close()
				return
			}

			q.Enqueue("42")
		}
	}()

	q.Enqueue("42")

	cl := client.NewForTesting(clientSide)
	t.Cleanup(func() { cl.Close() })

	return cl
}

func TestClientOpenWriteRead(t *testing.T) {
	cl := newHarness(t)

	require.NoError(t, cl.Open("f", client.FlagCreate|client.FlagLock))

	victims, err := cl.Write("f", []byte("hello"))
	require.NoError(t, err)
	require.Empty(t, victims)

	content, err := cl.Read("f", false)
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestClientAppend(t *testing.T) {
	cl := newHarness(t)

	require.NoError(t, cl.Open("f", client.FlagCreate|client.FlagLock))
	_, err := cl.Write("f", []byte("foo"))
	require.NoError(t, err)

	require.NoError(t, cl.Unlock("f"))
	require.NoError(t, cl.Lock("f"))

	_, err = cl.Append("f", []byte("bar"))
	require.NoError(t, err)

	content, err := cl.Read("f", false)
	require.NoError(t, err)
	require.Equal(t, "foobar", string(content))
}

func TestClientReadMissingReturnsServerError(t *testing.T) {
	cl := newHarness(t)

	_, err := cl.Read("nope", false)
	require.Error(t, err)

	var serverErr *client.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, cl.LastErrno(), serverErr.Errno)
}

func TestClientReadNEmpty(t *testing.T) {
	cl := newHarness(t)

	results, err := cl.ReadN(0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestClientLockThenRemove(t *testing.T) {
	cl := newHarness(t)

	require.NoError(t, cl.Open("f", client.FlagCreate|client.FlagLock))
	require.NoError(t, cl.Remove("f"))

	_, err := cl.Read("f", false)
	require.Error(t, err)
}

func TestClientCloseFile(t *testing.T) {
	cl := newHarness(t)

	require.NoError(t, cl.Open("f", client.FlagCreate))
	require.NoError(t, cl.CloseFile("f"))

	// The entry survives close (only this client's opener slot is
	// cleared); a second open succeeds again.
	require.NoError(t, cl.Open("f", 0))
}

func TestClientShutdown(t *testing.T) {
	cl := newHarness(t)

	require.NoError(t, cl.Shutdown())
}
