// package retry schedules re-attempts of failed sync work with exponential
// backoff.
//
// Only failures classified as sync errors are accepted; network and storage
// failures are the offline steady state and wait for the next full sync pass
// instead of burning retries.
package retry

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lecternhq/lectern/internal/shared"
)

// Task is one unit of retryable work. It is invoked with the queue's
// lifecycle context and reports whether the attempt succeeded.
type Task func(ctx context.Context) error

// Queue retries failed sync work on per-entry timers. Entries are keyed so a
// failure that is already scheduled is not scheduled twice, and Stop cancels
// every pending timer.
type Queue struct {
	cfg    shared.RetryConfig
	logger *log.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a retry queue with the given backoff tuning. Call Start
// before enqueueing work.
func NewQueue(cfg shared.RetryConfig, logger *log.Logger) *Queue {
	if cfg.BaseDelayMs <= 0 {
		cfg.BaseDelayMs = 1000
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2
	}
	if cfg.MaxDelayMs <= 0 {
		cfg.MaxDelayMs = 30000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Queue{cfg: cfg, logger: logger, timers: make(map[string]*time.Timer)}
}

// Start makes the queue accept work.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.started = true
}

// Stop cancels every pending timer and waits for in-flight attempts to
// finish. The queue can be started again afterwards.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	for id, timer := range q.timers {
		if timer.Stop() {
			// Timer never fired, so its callback will not call Done.
			q.wg.Done()
		}
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

// Enqueue schedules task for retry under the given key. Returns false when
// the failure kind is not retryable, the queue is stopped, or the key is
// already scheduled.
func (q *Queue) Enqueue(id string, kind shared.Kind, task Task) bool {
	if !kind.Retryable() {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return false
	}
	if _, exists := q.timers[id]; exists {
		return false
	}

	q.scheduleLocked(id, 1, task)
	return true
}

// Pending returns the number of entries waiting on a timer.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// scheduleLocked arms the timer for the given attempt. Caller holds q.mu.
func (q *Queue) scheduleLocked(id string, attempt int, task Task) {
	delay := backoffDelay(q.cfg, attempt)
	ctx := q.ctx

	q.wg.Add(1)
	q.timers[id] = time.AfterFunc(delay, func() {
		defer q.wg.Done()
		q.run(ctx, id, attempt, task)
	})

	if q.logger != nil {
		q.logger.Debug("retry scheduled", "id", id, "attempt", attempt, "delay", delay)
	}
}

// run executes one attempt and either resolves the entry or schedules the
// next attempt.
func (q *Queue) run(ctx context.Context, id string, attempt int, task Task) {
	if ctx.Err() != nil {
		return
	}

	err := task(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.timers, id)

	if err == nil {
		if q.logger != nil {
			q.logger.Info("retry succeeded", "id", id, "attempt", attempt)
		}
		return
	}

	if !q.started || ctx.Err() != nil {
		return
	}

	if !shared.KindOf(err).Retryable() || attempt >= q.cfg.MaxAttempts {
		if q.logger != nil {
			q.logger.Warn("retry exhausted", "id", id, "attempts", attempt, "err", err)
		}
		return
	}

	q.scheduleLocked(id, attempt+1, task)
}

// backoffDelay computes the delay before the given attempt:
// base * multiplier^(attempt-1), capped at the configured maximum.
func backoffDelay(cfg shared.RetryConfig, attempt int) time.Duration {
	delayMs := cfg.BaseDelayMs
	for i := 1; i < attempt; i++ {
		delayMs *= cfg.Multiplier
		if delayMs >= cfg.MaxDelayMs {
			delayMs = cfg.MaxDelayMs
			break
		}
	}
	if delayMs > cfg.MaxDelayMs {
		delayMs = cfg.MaxDelayMs
	}
	return time.Duration(delayMs) * time.Millisecond
}
