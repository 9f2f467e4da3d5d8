package channel

import (
	"context"
	"time"

	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/transport"
)

// DefaultAdmissionLimit is the default number of concurrently in-flight
// commands before backpressure applies.
const DefaultAdmissionLimit = 1024

// Dialer opens a transport to the worker socket at path.
// The default dialer uses transport.DialContext; tests substitute stubs.
type Dialer func(ctx context.Context, path string) (transport.Transport, error)

// Option configures optional behavior of a Channel.
type Option func(*options)

type options struct {
	logger         log.Logger
	metrics        *Metrics
	admissionLimit int
	maxFrameSize   uint32
	dialTimeout    time.Duration
	stateListener  StateListener
	dialer         Dialer
}

func defaultOptions() options {
	return options{
		logger:         log.NewNoopLogger(),
		admissionLimit: DefaultAdmissionLimit,
		dialTimeout:    transport.DefaultDialTimeout,
	}
}

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics injects a metrics aggregator. If not provided, the channel
// constructs its own. Sharing one instance across channels aggregates them.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithAdmissionLimit sets the maximum number of in-flight commands.
// Submissions beyond the limit fail fast with ErrBackpressure.
func WithAdmissionLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.admissionLimit = limit
		}
	}
}

// WithMaxFrameSize sets the frame size limit for both directions.
func WithMaxFrameSize(limit uint32) Option {
	return func(o *options) {
		o.maxFrameSize = limit
	}
}

// WithDialTimeout bounds the connect attempt made by Start.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.dialTimeout = timeout
		}
	}
}

// WithStateListener registers a callback for connection state transitions.
// The listener runs synchronously and must not call back into the channel.
func WithStateListener(listener StateListener) Option {
	return func(o *options) {
		o.stateListener = listener
	}
}

// WithDialer replaces the transport dialer. Intended for tests.
func WithDialer(dialer Dialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}
