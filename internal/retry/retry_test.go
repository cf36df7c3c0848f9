package retry

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/shared"
)

func fastConfig() shared.RetryConfig {
	return shared.RetryConfig{BaseDelayMs: 5, Multiplier: 2, MaxDelayMs: 40, MaxAttempts: 3}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestBackoffDelay(t *testing.T) {
	cfg := shared.RetryConfig{BaseDelayMs: 1000, Multiplier: 2, MaxDelayMs: 30000, MaxAttempts: 3}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{6, 30000 * time.Millisecond}, // capped
		{20, 30000 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("Attempt%d", tc.attempt), func(t *testing.T) {
			if got := backoffDelay(cfg, tc.attempt); got != tc.want {
				t.Errorf("backoffDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
			}
		})
	}
}

func TestQueue(t *testing.T) {
	t.Run("Only Sync Errors Accepted", func(t *testing.T) {
		q := NewQueue(fastConfig(), nil)
		q.Start()
		defer q.Stop()

		noop := func(ctx context.Context) error { return nil }

		for _, kind := range []shared.Kind{
			shared.KindNetwork, shared.KindAuthentication, shared.KindLocalStorage,
			shared.KindValidation, shared.KindConflict, shared.KindUnknown,
		} {
			if q.Enqueue("x", kind, noop) {
				t.Errorf("kind %s should not be accepted", kind)
			}
		}

		if !q.Enqueue("x", shared.KindSync, noop) {
			t.Error("sync kind should be accepted")
		}
	})

	t.Run("Succeeds On Retry", func(t *testing.T) {
		q := NewQueue(fastConfig(), nil)
		q.Start()
		defer q.Stop()

		var attempts atomic.Int32
		task := func(ctx context.Context) error {
			if attempts.Add(1) < 2 {
				return shared.E(shared.KindSync, "push", fmt.Errorf("rejected"))
			}
			return nil
		}

		if !q.Enqueue("job", shared.KindSync, task) {
			t.Fatal("enqueue refused")
		}

		waitFor(t, time.Second, func() bool { return attempts.Load() >= 2 && q.Pending() == 0 })
		if got := attempts.Load(); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
	})

	t.Run("Drops After Max Attempts", func(t *testing.T) {
		q := NewQueue(fastConfig(), nil)
		q.Start()
		defer q.Stop()

		var attempts atomic.Int32
		task := func(ctx context.Context) error {
			attempts.Add(1)
			return shared.E(shared.KindSync, "push", fmt.Errorf("always rejected"))
		}

		q.Enqueue("job", shared.KindSync, task)

		waitFor(t, time.Second, func() bool { return attempts.Load() == 3 && q.Pending() == 0 })
		time.Sleep(20 * time.Millisecond)
		if got := attempts.Load(); got != 3 {
			t.Errorf("expected exactly 3 attempts, got %d", got)
		}
	})

	t.Run("NonRetryable Failure Stops Early", func(t *testing.T) {
		q := NewQueue(fastConfig(), nil)
		q.Start()
		defer q.Stop()

		var attempts atomic.Int32
		task := func(ctx context.Context) error {
			attempts.Add(1)
			return shared.E(shared.KindAuthentication, "push", fmt.Errorf("token expired"))
		}

		q.Enqueue("job", shared.KindSync, task)

		waitFor(t, time.Second, func() bool { return attempts.Load() == 1 && q.Pending() == 0 })
		time.Sleep(20 * time.Millisecond)
		if got := attempts.Load(); got != 1 {
			t.Errorf("auth failure should not reschedule, got %d attempts", got)
		}
	})

	t.Run("Duplicate Keys Coalesce", func(t *testing.T) {
		q := NewQueue(fastConfig(), nil)
		q.Start()
		defer q.Stop()

		noop := func(ctx context.Context) error { return nil }
		if !q.Enqueue("job", shared.KindSync, noop) {
			t.Fatal("first enqueue refused")
		}
		if q.Enqueue("job", shared.KindSync, noop) {
			t.Error("second enqueue for same key should be refused")
		}
	})

	t.Run("Stop Cancels Pending", func(t *testing.T) {
		cfg := fastConfig()
		cfg.BaseDelayMs = 5000 // far enough out that Stop wins

		q := NewQueue(cfg, nil)
		q.Start()

		var attempts atomic.Int32
		q.Enqueue("job", shared.KindSync, func(ctx context.Context) error {
			attempts.Add(1)
			return nil
		})

		q.Stop()
		if got := attempts.Load(); got != 0 {
			t.Errorf("stopped queue should not run tasks, got %d attempts", got)
		}
		if q.Pending() != 0 {
			t.Errorf("expected no pending entries after stop, got %d", q.Pending())
		}

		if q.Enqueue("job", shared.KindSync, func(ctx context.Context) error { return nil }) {
			t.Error("stopped queue should refuse new work")
		}
	})
}
