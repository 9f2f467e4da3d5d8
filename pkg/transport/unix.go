package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/wire"
)

const (
	// DefaultDialTimeout bounds a single connect attempt.
	DefaultDialTimeout = 3 * time.Second

	// receiveBuffer is the number of decoded envelopes the receive loop may
	// run ahead of the router.
	receiveBuffer = 256

	readBufferSize = 64 * 1024
)

// Option configures a UnixTransport.
type Option func(*options)

type options struct {
	codec       wire.Codec
	logger      log.Logger
	dialTimeout time.Duration
}

func defaultOptions() options {
	return options{
		codec:       wire.NewCodec(0),
		logger:      log.NewNoopLogger(),
		dialTimeout: DefaultDialTimeout,
	}
}

// WithMaxFrameSize sets the frame size limit enforced on both directions.
func WithMaxFrameSize(limit uint32) Option {
	return func(o *options) {
		o.codec = wire.NewCodec(limit)
	}
}

// WithLogger sets the logger. Defaults to the no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDialTimeout bounds the connect attempt made by Dial.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = timeout
	}
}

// UnixTransport implements Transport over one unix domain socket connection.
type UnixTransport struct {
	conn      net.Conn
	codec     wire.Codec
	logger    log.Logger
	envelopes chan wire.Envelope

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the unix socket at path and returns a transport over the
// new connection. The receive side is idle until ReceiveLoop is started.
func Dial(path string, opts ...Option) (*UnixTransport, error) {
	return DialContext(context.Background(), path, opts...)
}

// DialContext is Dial bounded by both ctx and the configured dial timeout.
func DialContext(ctx context.Context, path string, opts ...Option) (*UnixTransport, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return newTransport(conn, o), nil
}

// New wraps an existing connection. Used by the echo worker's accept loop
// and by tests running over net.Pipe.
func New(conn net.Conn, opts ...Option) *UnixTransport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newTransport(conn, o)
}

func newTransport(conn net.Conn, o options) *UnixTransport {
	return &UnixTransport{
		conn:      conn,
		codec:     o.codec,
		logger:    o.logger,
		envelopes: make(chan wire.Envelope, receiveBuffer),
	}
}

// Send writes env as one frame in a single Write call.
func (t *UnixTransport) Send(env wire.Envelope) error {
	buf, err := t.codec.Encode(env)
	if err != nil {
		return err
	}
	if _, err := t.conn.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReceiveLoop reads frames until a terminal error or ctx cancellation.
// It closes Envelopes before returning.
func (t *UnixTransport) ReceiveLoop(ctx context.Context) {
	defer close(t.envelopes)

	br := bufio.NewReaderSize(t.conn, readBufferSize)
	for {
		env, err := t.codec.Decode(br)
		if err != nil {
			t.setErr(err)
			t.Close()
			return
		}

		select {
		case t.envelopes <- env:
		case <-ctx.Done():
			t.setErr(ctx.Err())
			t.Close()
			return
		}
	}
}

// Envelopes returns the received envelope stream.
func (t *UnixTransport) Envelopes() <-chan wire.Envelope {
	return t.envelopes
}

// Err returns the terminal receive error, or nil while the loop is running.
func (t *UnixTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close closes the connection, unblocking any blocked read. Idempotent.
func (t *UnixTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// setErr records the first terminal error; later errors (e.g. the read
// failure caused by our own Close) are ignored.
func (t *UnixTransport) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}
