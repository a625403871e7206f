package worker

import (
	"context"
	"testing"
	"time"
)

func TestPacer_ZeroDelayIsImmediate(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected immediate return, took %v", elapsed)
	}
}

func TestPacer_NegativeDelayIsImmediate(t *testing.T) {
	p := NewPacer(-time.Second)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestPacer_SleepsConfiguredDelay(t *testing.T) {
	var slept []time.Duration
	orig := pacerSleepFunc
	pacerSleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	defer func() { pacerSleepFunc = orig }()

	p := NewPacer(250 * time.Millisecond)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if len(slept) != 1 || slept[0] != 250*time.Millisecond {
		t.Errorf("Expected one 250ms sleep, got %v", slept)
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestPacer_EnforcesMinimumSpacing(t *testing.T) {
	orig := pacerSleepFunc
	pacerSleepFunc = func(ctx context.Context, d time.Duration) error { return nil }
	defer func() { pacerSleepFunc = orig }()

	// With the pre-call sleep stubbed out, the limiter alone must still
	// hold the minimum spacing between successive calls.
	p := NewPacer(40 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("Expected at least ~80ms across 3 calls, got %v", elapsed)
	}
}

func TestSleepWithContext_ReturnsAfterDuration(t *testing.T) {
	start := time.Now()
	if err := sleepWithContext(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("sleepWithContext failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Returned early after %v", elapsed)
	}
}
