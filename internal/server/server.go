// Package server wires together the cache engine, bounded queue, worker
// pool and dispatcher into a runnable fcached instance: it owns the
// listen socket, the log file, the advisory instance lock, and the
// signal-handling goroutine described in spec §5.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/config"
	"github.com/dkroeger/fcached/internal/dispatcher"
	"github.com/dkroeger/fcached/internal/queue"
	"github.com/dkroeger/fcached/internal/worker"
)

// QueueCapacityFactor sizes the bounded task queue (spec §4.1) as a
// multiple of the configured worker count: large enough that a burst of
// ready connections doesn't stall behind a slow worker, small enough that
// admission still applies real backpressure. The config grammar (spec
// §6.3) has no dedicated key for this, so it is derived rather than read.
const QueueCapacityFactor = 4

// Server is one running fcached instance.
type Server struct {
	cfg config.Config

	cache      *cache.Cache
	queue      *queue.Queue
	dispatcher *dispatcher.Dispatcher
	pool       *worker.Pool

	listener net.Listener
	lock     *flock.Flock
	logFile  *os.File
	log      *slog.Logger
}

// New constructs a Server from cfg. It binds the listen socket and
// acquires the instance lock, but does not start serving.
func New(cfg config.Config) (*Server, error) {
	logFile, log, err := openLog(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	lock := flock.New(cfg.SocketPath + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("server: acquire instance lock: %w", err)
	}

	if !locked {
		logFile.Close()
		return nil, fmt.Errorf("server: %s is already in use by another fcached instance", cfg.SocketPath)
	}

	// A previous unclean shutdown can leave a stale socket file behind;
	// remove it so the bind below doesn't fail with "address in use".
	if err := unix.Unlink(cfg.SocketPath); err != nil && !errors.Is(err, unix.ENOENT) {
		lock.Unlock()
		logFile.Close()

		return nil, fmt.Errorf("server: removing stale socket: %w", err)
	}

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		lock.Unlock()
		logFile.Close()

		return nil, fmt.Errorf("server: listen: %w", err)
	}

	c := cache.New(cache.Options{
		MaxFiles: cfg.MaxFiles,
		MaxBytes: cfg.MaxBytes,
		Policy:   cfg.Policy,
	})

	q := queue.New(cfg.WorkerThreads * QueueCapacityFactor)
	d := dispatcher.New(listener, q, c, log, cfg.WorkerThreads*QueueCapacityFactor)

	s := &Server{
		cfg:        cfg,
		cache:      c,
		queue:      q,
		dispatcher: d,
		listener:   listener,
		lock:       lock,
		logFile:    logFile,
		log:        log,
	}

	s.pool = &worker.Pool{
		Cache:             c,
		Queue:             q,
		Registry:          d,
		Notify:            d.Notify(),
		Log:               log,
		OnShutdownRequest: func() { d.Shutdown(false) },
	}

	return s, nil
}

func openLog(path string) (*os.File, *slog.Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("server: open log file: %w", err)
	}

	// slog's handlers are safe for concurrent use by multiple goroutines,
	// which is what spec §5 asks of "the log output is serialized by a
	// mutex internal to the log facility" without hand-rolling one.
	log := slog.New(slog.NewTextHandler(f, nil))

	return f, log, nil
}

// Serve runs the dispatcher and worker pool until ctx is canceled or a
// shutdown signal is received, then blocks until every goroutine has
// exited and logs final statistics (spec §8 scenario S6).
func (s *Server) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	eg, egCtx := errgroup.WithContext(ctx)

	for i := 0; i < s.cfg.WorkerThreads; i++ {
		workerID := i
		eg.Go(func() error {
			s.pool.Run(workerID)
			return nil
		})
	}

	eg.Go(func() error {
		s.dispatcher.Run(egCtx)
		return nil
	})

	eg.Go(func() error {
		select {
		case <-hupCh:
			s.log.Info("SIGHUP received, draining existing clients before shutdown")
			s.dispatcher.Shutdown(false)
			s.waitForDrain()
		case <-egCtx.Done():
		}

		return nil
	})

	err := eg.Wait()

	s.logFinalStats()
	s.cleanup()

	return err
}

// waitForDrain polls the dispatcher's online count until it reaches zero
// (at which point Shutdown(false) has already escalated to a hard
// shutdown itself) or ShutdownTimeout elapses, whichever comes first; on
// timeout it forces an immediate shutdown so Serve is guaranteed to
// return rather than wait indefinitely on slow or stuck clients.
func (s *Server) waitForDrain() {
	deadline := time.NewTimer(ShutdownTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			s.log.Warn("graceful shutdown exceeded timeout, forcing immediate stop",
				"timeout", ShutdownTimeout)
			s.dispatcher.Shutdown(true)

			return
		case <-ticker.C:
			if s.dispatcher.OnlineCount() == 0 {
				return
			}
		}
	}
}

// cleanup releases the instance lock, removes the socket file, and
// closes the log file. Called once Serve's errgroup has fully drained.
func (s *Server) cleanup() {
	s.lock.Unlock()
	os.Remove(s.cfg.SocketPath)
	os.Remove(s.cfg.SocketPath + ".lock")
	s.logFile.Close()
}

// logFinalStats logs the peak counters, eviction event count, and
// residual name listing on shutdown (spec §8 scenario S6; supplements the
// original's src/server.c statistics dump).
func (s *Server) logFinalStats() {
	stats := s.cache.Stats()

	s.log.Info("shutdown complete",
		"peak_files", stats.PeakFiles,
		"peak_bytes", stats.PeakBytes,
		"evictions", stats.Evictions,
		"residual_files", s.cache.Names(),
	)
}

// Shutdown requests an immediate (hard) shutdown; Serve returns once
// in-flight requests complete.
func (s *Server) Shutdown() {
	s.dispatcher.Shutdown(true)
}

// ShutdownTimeout bounds how long a soft shutdown (SIGHUP) waits for
// connected clients to drain before escalating to an immediate one.
const ShutdownTimeout = 30 * time.Second
