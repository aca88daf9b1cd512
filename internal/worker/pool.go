package worker

import (
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/queue"
	"github.com/dkroeger/fcached/internal/wire"
)

// Pool is a fixed set of worker goroutines draining one shared Queue.
type Pool struct {
	Cache    *cache.Cache
	Queue    *queue.Queue
	Registry ConnRegistry
	Notify   chan<- Notification
	Log      *slog.Logger

	// OnShutdownRequest, if set, is invoked when a client sends the
	// SHUTDOWN op (spec §6.1, op code 9).
	OnShutdownRequest func()

	// Fatal is invoked, after writing the reply frame, when the cache
	// engine reports a FATAL outcome (spec §4.3: "FATAL responses...
	// abort the process"). Defaults to os.Exit(1); tests override it.
	Fatal func(code int)
}

// Run dequeues descriptors until the queue is closed, handling exactly
// one request per dequeued descriptor.
func (p *Pool) Run(workerID int) {
	fatal := p.Fatal
	if fatal == nil {
		fatal = os.Exit
	}

	for {
		token, ok := p.Queue.Dequeue()
		if !ok {
			return
		}

		id, err := strconv.Atoi(token)
		if err != nil {
			if p.Log != nil {
				p.Log.Error("worker: malformed queue token", "worker", workerID, "token", token)
			}

			continue
		}

		p.handleOne(workerID, id, fatal)
	}
}

func (p *Pool) handleOne(workerID, id int, fatal func(int)) {
	conn, ok := p.Registry.Conn(id)
	if !ok {
		return
	}

	frame := make([]byte, wire.RequestFrameSize)
	if _, err := io.ReadFull(conn, frame); err != nil {
		p.depart(id)
		return
	}

	req, err := wire.DecodeRequest(frame)
	if err != nil {
		_ = wire.WriteOutcome(conn, wire.Failure)
		_ = wire.WriteErrno(conn, errnoFor(err))
		p.rearm(id)

		return
	}

	if req.Op == wire.OpShutdown {
		p.handleShutdown(workerID, conn, id)
		return
	}

	body, err := p.readBody(conn, req)
	if err != nil {
		p.depart(id)
		return
	}

	outcome, result, opErr := p.dispatch(req, body, cache.ClientID(id))

	if writeErr := writeReply(conn, req.Op, outcome, opErr, result); writeErr != nil {
		p.depart(id)
		return
	}

	p.log(workerID, req, outcome, opErr)

	if isFatal(opErr) {
		fatal(1)
		return
	}

	p.rearm(id)
}

// readBody reads the raw payload that follows a WRITE or APPEND header
// frame (spec §6.1); other operations carry no following payload.
func (p *Pool) readBody(conn net.Conn, req wire.Request) ([]byte, error) {
	switch req.Op {
	case wire.OpWrite:
		return wire.ReadPayload(conn, req.Length)
	case wire.OpAppend:
		return wire.ReadPayload(conn, req.Size)
	default:
		return nil, nil
	}
}

func (p *Pool) handleShutdown(workerID int, conn io.Writer, id int) {
	_ = wire.WriteOutcome(conn, wire.Success)

	if p.Log != nil {
		p.Log.Info("client requested shutdown", "worker", workerID, "client", id)
	}

	if p.OnShutdownRequest != nil {
		p.OnShutdownRequest()
	}

	p.depart(id)
}

func (p *Pool) depart(id int) {
	p.Cache.ReleaseClient(cache.ClientID(id))
	p.Notify <- Notification{ID: id, Departed: true}
}

func (p *Pool) rearm(id int) {
	p.Notify <- Notification{ID: id}
}

func (p *Pool) log(workerID int, req wire.Request, outcome wire.Outcome, err error) {
	if p.Log == nil {
		return
	}

	attrs := []any{"worker", workerID, "op", req.Op.String(), "result", outcome.String()}
	if req.Path != "" {
		attrs = append(attrs, "path", req.Path)
	}
	if err != nil {
		attrs = append(attrs, "err", err)
	}

	p.Log.Info("request", attrs...)
}
