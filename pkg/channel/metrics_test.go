package channel

import (
	"testing"
	"time"
)

func TestMetricsAverageLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordProcessed(2 * time.Millisecond)
	m.RecordProcessed(4 * time.Millisecond)

	snap := m.Snapshot()
	if snap.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", snap.Processed)
	}
	if snap.AverageLatencyMs != 3.0 {
		t.Fatalf("expected average 3.0ms, got %f", snap.AverageLatencyMs)
	}
}

func TestMetricsEmptySnapshot(t *testing.T) {
	snap := NewMetrics().Snapshot()
	if snap.Processed != 0 || snap.Dropped != 0 || snap.Orphaned != 0 {
		t.Fatalf("fresh aggregator not zero: %+v", snap)
	}
	if snap.AverageLatencyMs != 0 {
		t.Fatalf("average with no samples should be 0, got %f", snap.AverageLatencyMs)
	}
}

func TestMetricsCountersAreIndependent(t *testing.T) {
	m := NewMetrics()
	m.RecordDropped()
	m.RecordDropped()
	m.RecordOrphaned()

	snap := m.Snapshot()
	if snap.Dropped != 2 || snap.Orphaned != 1 || snap.Processed != 0 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	m.RecordDropped()
	if snap.Dropped != 0 {
		t.Fatal("snapshot mutated after the fact")
	}
}
