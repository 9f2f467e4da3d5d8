package channel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/biwakonbu/fcode-sub005/pkg/healthcheck"
	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/transport"
	"github.com/biwakonbu/fcode-sub005/pkg/wire"
)

// Channel is the command/response multiplexer over one worker connection.
// Create it with New, open it with Start, and issue commands concurrently
// with SendCommand. A channel that faults cannot be reused; reconnection
// policy belongs to the worker lifecycle layer, not here.
type Channel struct {
	socketPath string
	opts       options

	// id identifies this channel instance in logs.
	id      string
	logger  log.Logger
	metrics *Metrics
	sm      *stateMachine

	tr transport.Transport

	// writeMu serializes transport writes so two submissions are never
	// interleaved on the wire.
	writeMu sync.Mutex

	nextID        atomic.Uint64
	pending       *pendingTable
	inflightCount atomic.Int64
	limit         int64

	recvCancel context.CancelFunc
	recvDone   chan struct{}
	closeOnce  sync.Once
}

// New creates a channel for the worker socket at socketPath.
// The channel is Disconnected until Start is called.
func New(socketPath string, opts ...Option) *Channel {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if o.dialer == nil {
		o.dialer = func(ctx context.Context, path string) (transport.Transport, error) {
			return transport.DialContext(ctx, path,
				transport.WithMaxFrameSize(o.maxFrameSize),
				transport.WithDialTimeout(o.dialTimeout),
				transport.WithLogger(o.logger),
			)
		}
	}

	return &Channel{
		socketPath: socketPath,
		opts:       o,
		id:         uuid.NewString(),
		logger:     o.logger,
		metrics:    o.metrics,
		sm:         newStateMachine(o.logger, o.stateListener),
		pending:    newPendingTable(),
		limit:      int64(o.admissionLimit),
		recvDone:   make(chan struct{}),
	}
}

// ID returns the channel's instance id, as it appears in log output.
func (c *Channel) ID() string { return c.id }

// State returns the current connection state.
func (c *Channel) State() State { return c.sm.Current() }

// Start dials the worker socket and begins receiving responses.
// Returns ErrConnectionFailed if the socket cannot be dialed and
// ErrAlreadyStarted if the channel left Disconnected before.
func (c *Channel) Start(ctx context.Context) error {
	if err := c.sm.transitionTo(StateConnecting, "start requested"); err != nil {
		return ErrAlreadyStarted
	}

	tr, err := c.opts.dialer(ctx, c.socketPath)
	if err != nil {
		c.sm.transitionTo(StateFaulted, "connect failed")
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	c.tr = tr

	if err := c.sm.transitionTo(StateReady, "connected"); err != nil {
		tr.Close()
		return ErrAlreadyStarted
	}

	recvCtx, cancel := context.WithCancel(context.Background())
	c.recvCancel = cancel
	go c.receiveLoop(recvCtx)

	c.logger.Info("channel ready",
		log.String("channel_id", c.id),
		log.String("socket", c.socketPath),
		log.Int("admission_limit", int(c.limit)),
	)
	return nil
}

// SendCommand submits one opaque command payload and blocks the calling
// goroutine until the correlated response arrives, ctx is done, or the
// connection dies. Callers compose timeouts via ctx; the channel itself
// never retries and never times out.
func (c *Channel) SendCommand(ctx context.Context, payload []byte) ([]byte, error) {
	switch c.sm.Current() {
	case StateReady:
	case StateClosed, StateFaulted:
		return nil, ErrConnectionLost
	default:
		return nil, ErrNotStarted
	}

	// Admission control: fail fast before touching the transport.
	if n := c.inflightCount.Add(1); n > c.limit {
		c.inflightCount.Add(-1)
		c.metrics.RecordDropped()
		return nil, ErrBackpressure
	}
	defer c.inflightCount.Add(-1)

	id := c.nextID.Add(1)
	p := newPendingRequest(id)
	c.pending.add(p)

	env := wire.Envelope{ID: id, Payload: payload}
	c.writeMu.Lock()
	err := c.tr.Send(env)
	c.writeMu.Unlock()
	if err != nil {
		c.pending.remove(id)
		if wire.IsFramingError(err) {
			// Local encode rejection; the connection is still intact.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	select {
	case res := <-p.done:
		return res.payload, res.err
	case <-ctx.Done():
		// Best-effort cancellation. If the response raced in while we were
		// canceling, the request is already resolved; return that instead.
		if c.pending.remove(id) {
			return nil, ctx.Err()
		}
		res := <-p.done
		return res.payload, res.err
	}
}

// HealthCheck round-trips the built-in liveness probe and verifies the
// token echo. Returns the measured round-trip time.
func (c *Channel) HealthCheck(ctx context.Context, token string) (time.Duration, error) {
	payload, err := healthcheck.EncodeRequest(token)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	reply, err := c.SendCommand(ctx, payload)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)

	resp, err := healthcheck.DecodeResponse(reply)
	if err != nil {
		return 0, err
	}
	if !resp.Matches(token) {
		return 0, ErrTokenMismatch
	}
	return elapsed, nil
}

// GetMetrics returns a copy of the channel's counters.
func (c *Channel) GetMetrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// InFlight returns the number of currently pending commands.
func (c *Channel) InFlight() int {
	return c.pending.size()
}

// Close tears down the connection and fails every pending command with
// ErrConnectionLost. Idempotent; safe to call in any state.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		// Invalid from Faulted; the channel is already terminal then.
		c.sm.transitionTo(StateClosed, "close requested")
		if c.recvCancel != nil {
			c.recvCancel()
		}
		if c.tr != nil {
			c.tr.Close()
		}
		c.failPending()
		c.logger.Info("channel closed", log.String("channel_id", c.id))
	})
	return nil
}

// receiveLoop is the one background task per open channel. It drives the
// transport's receive loop and routes each response to its pending request.
func (c *Channel) receiveLoop(ctx context.Context) {
	defer close(c.recvDone)

	go c.tr.ReceiveLoop(ctx)
	for env := range c.tr.Envelopes() {
		c.route(env)
	}

	// The transport terminated. If we initiated the close, the state is
	// already Closed; otherwise the connection died under us.
	if err := c.sm.transitionTo(StateFaulted, "receive loop terminated"); err == nil {
		c.logger.Warn("connection lost",
			log.String("channel_id", c.id),
			log.Err(c.tr.Err()),
		)
	}
	c.failPending()
}

func (c *Channel) route(env wire.Envelope) {
	p, ok := c.pending.take(env.ID)
	if !ok {
		// Response for an unknown or expired correlation id, e.g. the
		// caller canceled before the worker replied.
		c.metrics.RecordOrphaned()
		c.logger.Debug("orphaned response",
			log.String("channel_id", c.id),
			log.Uint64("correlation_id", env.ID),
		)
		return
	}

	c.metrics.RecordProcessed(time.Since(p.submitted))
	p.resolve(env.Payload, nil)
}

func (c *Channel) failPending() {
	for _, p := range c.pending.drain() {
		p.resolve(nil, ErrConnectionLost)
	}
}
