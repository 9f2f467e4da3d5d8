package channel_test

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/biwakonbu/fcode-sub005/internal/echoworker"
	"github.com/biwakonbu/fcode-sub005/pkg/channel"
)

func startLoadFixture(t *testing.T) *channel.Channel {
	t.Helper()

	worker := echoworker.New(filepath.Join(t.TempDir(), "load.sock"))
	if err := worker.Start(); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	t.Cleanup(func() { worker.Close() })

	ch := channel.New(worker.Path(), channel.WithAdmissionLimit(4096))
	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start channel: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestSustainedThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("sustained load test skipped in short mode")
	}

	ch := startLoadFixture(t)
	payload := []byte(`{"type":"health_check","token":"load"}`)

	const (
		targetRate = 10000 // commands per second
		duration   = 5 * time.Second
		tickEvery  = 5 * time.Millisecond
	)
	perTick := targetRate / int(time.Second/tickEvery)

	var attempted, succeeded atomic.Uint64
	var wg sync.WaitGroup

	start := time.Now()
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()
	for time.Since(start) < duration {
		<-ticker.C
		for i := 0; i < perTick; i++ {
			attempted.Add(1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := ch.SendCommand(context.Background(), payload); err == nil {
					succeeded.Add(1)
				}
			}()
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	throughput := float64(succeeded.Load()) / elapsed.Seconds()
	if throughput < 0.8*targetRate {
		t.Fatalf("throughput %.0f/s, expected at least %.0f/s", throughput, 0.8*float64(targetRate))
	}
	successRate := float64(succeeded.Load()) / float64(attempted.Load())
	if successRate < 0.9 {
		t.Fatalf("success rate %.2f, expected at least 0.90", successRate)
	}

	m := ch.GetMetrics()
	t.Logf("throughput %.0f/s, success %.3f, metrics %+v", throughput, successRate, m)
}

func TestSequentialLatencyPercentiles(t *testing.T) {
	if testing.Short() {
		t.Skip("latency test skipped in short mode")
	}

	ch := startLoadFixture(t)
	payload := []byte(`{"type":"health_check","token":"lat"}`)

	const samples = 1000
	latencies := make([]time.Duration, 0, samples)
	for i := 0; i < samples; i++ {
		start := time.Now()
		if _, err := ch.SendCommand(context.Background(), payload); err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		latencies = append(latencies, time.Since(start))
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p95 := latencies[samples*95/100]
	p99 := latencies[samples*99/100]

	if p95 >= time.Millisecond {
		t.Fatalf("p95 latency %v, expected under 1ms", p95)
	}
	if p99 >= 2*time.Millisecond {
		t.Fatalf("p99 latency %v, expected under 2ms", p99)
	}
	t.Logf("p95 %v, p99 %v", p95, p99)
}

func TestSustainedLoadBoundsMemory(t *testing.T) {
	if testing.Short() {
		t.Skip("memory test skipped in short mode")
	}

	ch := startLoadFixture(t)
	payload := []byte(`{"type":"health_check","token":"mem"}`)

	runtime.GC()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	const workers = 16
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ch.SendCommand(context.Background(), payload)
			}
		}()
	}
	time.Sleep(10 * time.Second)
	close(stop)
	wg.Wait()

	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	var growth uint64
	if after.HeapAlloc > before.HeapAlloc {
		growth = after.HeapAlloc - before.HeapAlloc
	}
	if growth > 10<<20 {
		t.Fatalf("heap grew by %d bytes under sustained load, expected under 10MB", growth)
	}
	t.Logf("heap growth %d bytes over %d processed", growth, ch.GetMetrics().Processed)
}
