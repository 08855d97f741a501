package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFixedBackoff(t *testing.T) {
	fb := NewFixedBackoff(500 * time.Millisecond)

	if fb.NextDelay(0) != 0 {
		t.Error("Expected zero delay for attempt 0")
	}

	// The default multiplier is 4x the base delay, constant across attempts
	want := 2 * time.Second
	for attempt := 1; attempt <= 5; attempt++ {
		if got := fb.NextDelay(attempt); got != want {
			t.Errorf("Attempt %d: expected %v, got %v", attempt, want, got)
		}
	}

	fb.Reset()
	if got := fb.NextDelay(1); got != want {
		t.Errorf("Expected %v after reset, got %v", want, got)
	}
}

func TestExponentialBackoff(t *testing.T) {
	eb := NewExponentialBackoff(time.Second, 10*time.Second)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := eb.NextDelay(tc.attempt); got != tc.want {
			t.Errorf("Attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestSleep(t *testing.T) {
	t.Run("ElapsesNormally", func(t *testing.T) {
		start := time.Now()
		if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
			t.Fatalf("Sleep failed: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("Expected at least 10ms sleep, got %v", elapsed)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, 5*time.Second)
		if err == nil {
			t.Fatal("Expected error from canceled context")
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Expected immediate return, took %v", elapsed)
		}
	})

	t.Run("ZeroDelay", func(t *testing.T) {
		if err := Sleep(context.Background(), 0); err != nil {
			t.Errorf("Expected nil for zero delay, got %v", err)
		}
	})
}

func TestPacerWait(t *testing.T) {
	p := NewPacer(5 * time.Millisecond)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("Expected at least 5ms wait, got %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("Expected error from canceled context")
	}
}
