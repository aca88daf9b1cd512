package dispatcher_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/dispatcher"
	"github.com/dkroeger/fcached/internal/queue"
	"github.com/dkroeger/fcached/internal/wire"
	"github.com/dkroeger/fcached/internal/worker"
)

func listen(t *testing.T) net.Listener {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fcached.sock")

	l, err := net.Listen("unix", path)
	require.NoError(t, err)

	t.Cleanup(func() { l.Close() })

	return l
}

func TestDispatcherHandlesOneRequestPerConnection(t *testing.T) {
	l := listen(t)

	c := cache.New(cache.Options{MaxFiles: 10, MaxBytes: 1024, Policy: cache.FIFO})
	q := queue.New(4)
	d := dispatcher.New(l, q, c, nil, 4)

	pool := &worker.Pool{Cache: c, Queue: q, Registry: d, Notify: d.Notify()}
	go pool.Run(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	conn, err := net.Dial("unix", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	frame, err := wire.EncodeOpen("a", wire.FlagCreate)
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	outcome, err := wire.ReadOutcome(conn)
	require.NoError(t, err)
	require.Equal(t, wire.Success, outcome)

	require.Eventually(t, func() bool { return d.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	d.Shutdown(true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not shut down")
	}
}

func TestDispatcherSoftShutdownDrainsBeforeClosing(t *testing.T) {
	l := listen(t)

	c := cache.New(cache.Options{MaxFiles: 10, MaxBytes: 1024, Policy: cache.FIFO})
	q := queue.New(4)
	d := dispatcher.New(l, q, c, nil, 4)

	pool := &worker.Pool{Cache: c, Queue: q, Registry: d, Notify: d.Notify()}
	go pool.Run(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	conn, err := net.Dial("unix", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	frame, err := wire.EncodeOpen("a", wire.FlagCreate)
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	_, err = wire.ReadOutcome(conn)
	require.NoError(t, err)

	d.Shutdown(false)

	_, err = net.Dial("unix", l.Addr().String())
	require.Error(t, err, "listener should be closed to new connections once refusing new work")

	shutdownFrame, err := wire.EncodeShutdown()
	require.NoError(t, err)
	_, err = conn.Write(shutdownFrame)
	require.NoError(t, err)

	_, err = wire.ReadOutcome(conn)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not finish draining and shut down")
	}
}
