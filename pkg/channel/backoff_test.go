package channel

import (
	"context"
	"testing"
	"time"
)

func TestBackoffGrowthAndCap(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, 40*time.Millisecond)
	ctx := context.Background()

	if b.Current() != 10*time.Millisecond {
		t.Fatalf("initial: %v", b.Current())
	}
	for i := 0; i < 4; i++ {
		if err := b.Sleep(ctx); err != nil {
			t.Fatalf("sleep %d: %v", i, err)
		}
	}
	if b.Current() != 40*time.Millisecond {
		t.Fatalf("expected cap at 40ms, got %v", b.Current())
	}

	b.Reset()
	if b.Current() != 10*time.Millisecond {
		t.Fatalf("after reset: %v", b.Current())
	}
}

func TestBackoffSleepHonorsContext(t *testing.T) {
	b := NewBackoff(10*time.Second, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := b.Sleep(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Sleep ignored canceled context")
	}
}
