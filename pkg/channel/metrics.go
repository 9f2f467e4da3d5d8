package channel

import (
	"sync"
	"time"
)

// MetricsSnapshot is a point-in-time copy of a channel's delivery counters.
// Counters are monotonic for the lifetime of the aggregator; the average is
// recomputed from the running totals on every snapshot.
type MetricsSnapshot struct {
	// Processed counts commands that received a correlated response.
	Processed uint64

	// Dropped counts commands rejected at admission (backpressure).
	Dropped uint64

	// Orphaned counts responses that matched no pending request, e.g. a
	// reply arriving after the caller canceled. Neither processed nor
	// dropped.
	Orphaned uint64

	// AverageLatencyMs is the mean round-trip time over processed commands.
	AverageLatencyMs float64
}

// Metrics accumulates delivery counters for one channel.
//
// Each channel owns its aggregator; there is no process-wide instance.
// Tests can inject an isolated one via WithMetrics and read it directly.
type Metrics struct {
	mu         sync.Mutex
	processed  uint64
	dropped    uint64
	orphaned   uint64
	latencySum time.Duration
}

// NewMetrics creates an empty aggregator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordProcessed counts one completed round trip.
func (m *Metrics) RecordProcessed(latency time.Duration) {
	m.mu.Lock()
	m.processed++
	m.latencySum += latency
	m.mu.Unlock()
}

// RecordDropped counts one backpressure rejection.
func (m *Metrics) RecordDropped() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

// RecordOrphaned counts one response with no matching pending request.
func (m *Metrics) RecordOrphaned() {
	m.mu.Lock()
	m.orphaned++
	m.mu.Unlock()
}

// Snapshot returns a copy of the counters. It only takes the aggregator
// lock, so it never blocks on live traffic.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Processed: m.processed,
		Dropped:   m.dropped,
		Orphaned:  m.orphaned,
	}
	if m.processed > 0 {
		snap.AverageLatencyMs = float64(m.latencySum.Microseconds()) / float64(m.processed) / 1000.0
	}
	return snap
}
