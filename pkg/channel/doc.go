// Package channel implements the orchestrator side of the worker command
// protocol: a concurrency-safe request/response multiplexer over one unix
// socket connection.
//
// Each submitted command gets a correlation id and a slot in the in-flight
// table; the single receive goroutine matches responses back by id, so
// responses may arrive in any order. An admission limit bounds in-flight
// commands: past it, SendCommand fails immediately with ErrBackpressure
// rather than queueing.
//
// # Lifecycle
//
//	ch := channel.New("/run/fcode/dev.sock")
//	if err := ch.Start(ctx); err != nil { ... }
//	defer ch.Close()
//
//	resp, err := ch.SendCommand(ctx, payload)
//
// The state machine is Disconnected -> Connecting -> Ready -> {Closed,
// Faulted}. Faulted is terminal: a worker that died or corrupted the stream
// requires a fresh Channel (and usually a respawned worker). The channel
// performs no retries and no reconnects.
//
// # Metrics
//
// Every channel owns an injectable [Metrics] aggregator tracking processed,
// dropped, and orphaned counts plus the mean round-trip latency. Read it
// with GetMetrics at any time.
package channel
