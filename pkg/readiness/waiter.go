package readiness

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/biwakonbu/fcode-sub005/pkg/log"
)

const (
	// DefaultPollInterval is the fixed spacing between readiness probes.
	// Short enough to keep timing within tens of milliseconds of the
	// readiness moment and the deadline.
	DefaultPollInterval = 25 * time.Millisecond

	// DefaultProbeTimeout bounds a single connect probe in
	// WaitForConnection.
	DefaultProbeTimeout = 250 * time.Millisecond
)

// Waiter bridges "worker spawned" and "channel can be opened": it polls for
// the worker's socket endpoint after the lifecycle layer launches the
// process. It never spawns or supervises anything itself.
type Waiter struct {
	interval     time.Duration
	probeTimeout time.Duration
	logger       log.Logger
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithPollInterval sets the spacing between probes.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Waiter) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithProbeTimeout bounds each connect probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(w *Waiter) {
		if timeout > 0 {
			w.probeTimeout = timeout
		}
	}
}

// WithLogger sets the logger. Defaults to the no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Waiter) {
		w.logger = logger
	}
}

// NewWaiter creates a waiter with default intervals.
func NewWaiter(opts ...Option) *Waiter {
	w := &Waiter{
		interval:     DefaultPollInterval,
		probeTimeout: DefaultProbeTimeout,
		logger:       log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitForEndpoint reports whether the socket endpoint at path appears
// within maxWait. It is a pure existence check: a stale socket file counts
// as present. Returns false early if ctx is done.
//
// When the parent directory is watchable, an fsnotify create event wakes
// the waiter ahead of the next poll tick.
func (w *Waiter) WaitForEndpoint(ctx context.Context, path string, maxWait time.Duration) bool {
	if endpointExists(path) {
		return true
	}

	// Fast-wake on file creation. Polling remains the source of truth, so
	// a watcher failure (missing directory, fd limits) degrades quietly.
	var events <-chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(filepath.Dir(path)); err == nil {
			events = watcher.Events
		}
		defer watcher.Close()
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			// One last look so a creation racing the deadline still counts.
			return endpointExists(path)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Name == path && event.Op&fsnotify.Create != 0 && endpointExists(path) {
				return true
			}
		case <-ticker.C:
			if endpointExists(path) {
				return true
			}
		}
	}
}

// WaitForConnection reports whether the endpoint at path accepts
// connections within maxWait. Each probe performs a real connect-and-close,
// so a stale socket file left by a crashed worker, or a regular file
// written where the socket should be, reports not-ready. Returns false
// early if ctx is done.
func (w *Waiter) WaitForConnection(ctx context.Context, path string, maxWait time.Duration) bool {
	if w.probe(path) {
		return true
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return w.probe(path)
		case <-ticker.C:
			if w.probe(path) {
				return true
			}
		}
	}
}

// probe attempts one connect-and-close against path.
func (w *Waiter) probe(path string) bool {
	conn, err := net.DialTimeout("unix", path, w.probeTimeout)
	if err != nil {
		// Covers absent endpoints, stale sockets (ECONNREFUSED), and
		// non-socket files (ENOTSOCK / ECONNREFUSED); all mean not-ready.
		w.logger.Debug("connect probe failed", log.String("socket", path), log.Err(err))
		return false
	}
	conn.Close()
	return true
}

func endpointExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// WaitForEndpoint polls with default settings. See Waiter.WaitForEndpoint.
func WaitForEndpoint(ctx context.Context, path string, maxWait time.Duration) bool {
	return NewWaiter().WaitForEndpoint(ctx, path, maxWait)
}

// WaitForConnection probes with default settings. See
// Waiter.WaitForConnection.
func WaitForConnection(ctx context.Context, path string, maxWait time.Duration) bool {
	return NewWaiter().WaitForConnection(ctx, path, maxWait)
}
