package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/biwakonbu/fcode-sub005/pkg/channel"
	"github.com/biwakonbu/fcode-sub005/pkg/healthcheck"
	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/readiness"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		rate     int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive sustained health-check load against a worker",
		Long: `Issues health checks at a fixed rate for the given duration and prints
channel metrics plus latency percentiles. Backpressure rejections count as
drops, not failures of the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.NewZerologAdapterWithLogger(a.logger)

			waiter := readiness.NewWaiter(
				readiness.WithPollInterval(a.cfg.PollInterval),
				readiness.WithLogger(logger),
			)
			if !waiter.WaitForConnection(ctx, a.cfg.SocketPath, a.cfg.ReadyTimeout) {
				return fmt.Errorf("worker unreachable: %s did not accept connections within %s",
					a.cfg.SocketPath, a.cfg.ReadyTimeout)
			}

			ch := channel.New(a.cfg.SocketPath,
				channel.WithLogger(logger),
				channel.WithAdmissionLimit(a.cfg.AdmissionLimit),
				channel.WithMaxFrameSize(uint32(a.cfg.MaxFrameBytes)),
				channel.WithDialTimeout(a.cfg.DialTimeout),
			)
			if err := ch.Start(ctx); err != nil {
				return err
			}
			defer ch.Close()

			return runBench(ctx, ch, rate, duration)
		},
	}

	cmd.Flags().IntVar(&rate, "rate", 10000, "target commands per second")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to sustain the load")
	return cmd
}

func runBench(ctx context.Context, ch *channel.Channel, rate int, duration time.Duration) error {
	payload, err := healthcheck.EncodeRequest("bench")
	if err != nil {
		return err
	}

	const tickEvery = 5 * time.Millisecond
	perTick := rate / int(time.Second/tickEvery)
	if perTick < 1 {
		perTick = 1
	}

	var (
		attempted atomic.Uint64
		mu        sync.Mutex
		latencies []time.Duration
		wg        sync.WaitGroup
	)

	start := time.Now()
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

loop:
	for time.Since(start) < duration {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		for i := 0; i < perTick; i++ {
			attempted.Add(1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				if _, err := ch.SendCommand(ctx, payload); err == nil {
					elapsed := time.Since(t0)
					mu.Lock()
					latencies = append(latencies, elapsed)
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	m := ch.GetMetrics()
	fmt.Printf("duration:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("attempted:  %d (%.0f/s)\n", attempted.Load(), float64(attempted.Load())/elapsed.Seconds())
	fmt.Printf("processed:  %d (%.0f/s)\n", m.Processed, float64(m.Processed)/elapsed.Seconds())
	fmt.Printf("dropped:    %d\n", m.Dropped)
	fmt.Printf("orphaned:   %d\n", m.Orphaned)
	fmt.Printf("avg latency: %.3fms\n", m.AverageLatencyMs)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	if len(latencies) > 0 {
		fmt.Printf("p50: %s  p95: %s  p99: %s\n",
			percentile(latencies, 50), percentile(latencies, 95), percentile(latencies, 99))
	}
	return nil
}

// percentile returns the p-th percentile of sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
