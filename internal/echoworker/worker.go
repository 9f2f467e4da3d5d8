// Package echoworker implements a minimal worker-side peer for the command
// socket protocol: it answers health checks and echoes every other payload
// back under the same correlation id. The fcode-chan CLI runs it for local
// testing, and the channel load tests run it in-process.
package echoworker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/biwakonbu/fcode-sub005/pkg/healthcheck"
	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/wire"
)

// Worker listens on a unix socket and serves the echo protocol.
type Worker struct {
	path   string
	codec  wire.Codec
	logger log.Logger

	ln      net.Listener
	started time.Time
	wg      sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger. Defaults to the no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithMaxFrameSize sets the frame size limit for served connections.
func WithMaxFrameSize(limit uint32) Option {
	return func(w *Worker) {
		w.codec = wire.NewCodec(limit)
	}
}

// New creates a worker that will listen at path once started.
func New(path string, opts ...Option) *Worker {
	w := &Worker{
		path:   path,
		codec:  wire.NewCodec(0),
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates the socket and begins accepting connections in the
// background. A stale socket file left by a dead worker is replaced; a
// regular file at the path is an error.
func (w *Worker) Start() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	if st, err := os.Lstat(w.path); err == nil {
		if st.Mode()&os.ModeSocket == 0 {
			return fmt.Errorf("socket path exists and is not a unix socket: %s", w.path)
		}
		if err := os.Remove(w.path); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat socket path: %w", err)
	}

	ln, err := net.Listen("unix", w.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", w.path, err)
	}
	w.ln = ln
	w.started = time.Now()

	w.wg.Add(1)
	go w.acceptLoop()

	w.logger.Info("echo worker listening", log.String("socket", w.path))
	return nil
}

// Path returns the socket path the worker serves on.
func (w *Worker) Path() string { return w.path }

// Close stops accepting, closes the listener, and waits for connection
// handlers to drain. Idempotent.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		if w.ln != nil {
			w.closeErr = w.ln.Close()
		}
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Worker) acceptLoop() {
	defer w.wg.Done()
	for {
		conn, err := w.ln.Accept()
		if err != nil {
			// Listener closed.
			return
		}
		w.wg.Add(1)
		go w.serve(conn)
	}
}

// serve handles one orchestrator connection until it closes or misframes.
func (w *Worker) serve(conn net.Conn) {
	defer w.wg.Done()
	defer conn.Close()

	br := bufio.NewReaderSize(conn, 64*1024)
	for {
		env, err := w.codec.Decode(br)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				w.logger.Warn("connection dropped", log.Err(err))
			}
			return
		}

		reply, err := w.respond(env.Payload)
		if err != nil {
			w.logger.Warn("building reply failed", log.Err(err))
			return
		}

		buf, err := w.codec.Encode(wire.Envelope{ID: env.ID, Payload: reply})
		if err != nil {
			w.logger.Warn("encoding reply failed", log.Err(err))
			return
		}
		if _, err := conn.Write(buf); err != nil {
			return
		}
	}
}

// respond answers health checks with a real reply and echoes everything else.
func (w *Worker) respond(payload []byte) ([]byte, error) {
	req, err := healthcheck.DecodeRequest(payload)
	if err != nil {
		echo := make([]byte, len(payload))
		copy(echo, payload)
		return echo, nil
	}
	return healthcheck.EncodeResponse(req.Token, os.Getpid(), time.Since(w.started))
}
