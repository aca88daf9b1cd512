// Package dispatcher implements the connection acceptor and readiness
// multiplexer described in spec §4.4: it owns the listen socket, admits
// one ready connection at a time onto the bounded task queue, re-arms a
// connection once its worker reports completion, and drains in-flight
// connections before a soft shutdown or returns immediately on a hard
// one.
//
// A single poll() loop over raw file descriptors and a notification pipe
// is replaced here by one goroutine per connection plus one control
// goroutine reading a worker.Notification channel. Go's runtime netpoller
// already multiplexes blocking reads efficiently, so this reproduces
// every ordering guarantee (one worker per connection at a time, bounded
// admission, re-arm on completion, drain-then-exit) without hand-rolled
// fd polling.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/queue"
	"github.com/dkroeger/fcached/internal/worker"
)

// connEntry is one accepted connection's bookkeeping: its live net.Conn
// plus the control channel used to tell its goroutine whether to re-arm
// (enqueue itself again) or retire.
type connEntry struct {
	conn net.Conn
	ctrl chan bool // true: rearm: loop and enqueue again. false/closed: retire.
}

// Dispatcher accepts client connections on a listener, feeds ready
// descriptors to a bounded queue, and re-arms them as workers finish.
type Dispatcher struct {
	listener net.Listener
	queue    *queue.Queue
	cache    *cache.Cache
	log      *slog.Logger

	notify chan worker.Notification

	mu    sync.Mutex
	conns map[int]*connEntry

	online    atomic.Int64
	refuseNew atomic.Bool
	terminate atomic.Bool

	acceptDone chan struct{}
}

// New constructs a Dispatcher. notifyBuf sizes the internal notification
// channel; the queue's own capacity is the one named by spec §6.1/§4.1.
func New(listener net.Listener, q *queue.Queue, c *cache.Cache, log *slog.Logger, notifyBuf int) *Dispatcher {
	return &Dispatcher{
		listener:   listener,
		queue:      q,
		cache:      c,
		log:        log,
		notify:     make(chan worker.Notification, notifyBuf),
		conns:      make(map[int]*connEntry),
		acceptDone: make(chan struct{}),
	}
}

// Conn implements worker.ConnRegistry.
func (d *Dispatcher) Conn(id int) (net.Conn, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.conns[id]
	if !ok {
		return nil, false
	}

	return e.conn, true
}

// Notify returns the channel workers report completions on.
func (d *Dispatcher) Notify() chan<- worker.Notification { return d.notify }

// OnlineCount reports the number of currently connected clients.
func (d *Dispatcher) OnlineCount() int64 { return d.online.Load() }

// Run accepts connections and dispatches readiness until the context is
// canceled or Shutdown(true) (hard) is called. It returns once the
// accept loop and the notification loop have both exited.
func (d *Dispatcher) Run(ctx context.Context) {
	go d.acceptLoop(ctx)
	d.notifyLoop(ctx)
	<-d.acceptDone
}

func (d *Dispatcher) acceptLoop(ctx context.Context) {
	defer close(d.acceptDone)

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if d.refuseNew.Load() || d.terminate.Load() {
				return
			}

			if ctx.Err() != nil {
				return
			}

			if d.log != nil {
				d.log.Warn("accept error", "err", err)
			}

			return
		}

		id, err := connID(conn)
		if err != nil {
			if d.log != nil {
				d.log.Error("could not determine connection id", "err", err)
			}

			conn.Close()

			continue
		}

		entry := &connEntry{conn: conn, ctrl: make(chan bool)}

		d.mu.Lock()
		d.conns[id] = entry
		d.mu.Unlock()

		d.online.Add(1)

		go d.connLoop(id, entry)
	}
}

// connLoop is the readiness source for one connection: it enqueues the
// connection's ID (blocking if the bounded queue is full, per spec §4.1),
// then waits for the worker pool's verdict before enqueuing again. This
// keeps exactly one worker touching this descriptor at a time, matching
// spec §4.4's "removed from the set and enqueued... to prevent other
// workers from seeing it until a worker has processed its one in-flight
// request".
func (d *Dispatcher) connLoop(id int, entry *connEntry) {
	idStr := strconv.Itoa(id)

	for {
		if !d.queue.Enqueue(idStr) {
			return
		}

		rearm, ok := <-entry.ctrl
		if !ok || !rearm {
			return
		}
	}
}

func (d *Dispatcher) notifyLoop(ctx context.Context) {
	for {
		select {
		case note, ok := <-d.notify:
			if !ok {
				return
			}

			d.handleNotification(note)

		case <-ctx.Done():
			d.Shutdown(true)
			return
		}

		if d.terminate.Load() {
			return
		}
	}
}

func (d *Dispatcher) handleNotification(note worker.Notification) {
	d.mu.Lock()
	entry, ok := d.conns[note.ID]
	if ok && note.Departed {
		delete(d.conns, note.ID)
	}
	d.mu.Unlock()

	if !ok {
		return
	}

	if note.Departed {
		entry.conn.Close()
		close(entry.ctrl)

		remaining := d.online.Add(-1)

		if d.refuseNew.Load() && remaining == 0 {
			d.Shutdown(true)
		}

		return
	}

	entry.ctrl <- true
}

// Shutdown requests termination. hard=true closes the listener, the task
// queue and the notification channel at once, without waiting for
// in-flight requests, so Run returns promptly (spec §4.4 "terminate");
// hard=false stops accepting new connections and escalates to a hard
// shutdown once the online counter reaches zero (spec §4.4 "refuse_new").
func (d *Dispatcher) Shutdown(hard bool) {
	if !hard {
		if d.refuseNew.CompareAndSwap(false, true) {
			d.listener.Close()

			if d.online.Load() == 0 {
				d.Shutdown(true)
			}
		}

		return
	}

	if !d.terminate.CompareAndSwap(false, true) {
		return
	}

	d.refuseNew.Store(true)
	d.listener.Close()
	d.queue.Close()
	close(d.notify)
}

var errConnIDUnavailable = errors.New("dispatcher: could not determine connection descriptor")
