// package syncer implements the bidirectional sync engine.
//
// The core abstraction is Engine, which orchestrates one sync run per user:
// pull remote changes for each table, resolve collisions with dirty local
// rows, then push local changes in bounded batches. Runs emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/remote"
	"github.com/lecternhq/lectern/internal/repositories"
	"github.com/lecternhq/lectern/internal/retry"
	"github.com/lecternhq/lectern/internal/shared"
)

// Result contains the outcome of one full sync run.
type Result struct {
	Pulled    int // remote records applied locally
	Pushed    int // local changes confirmed by the server
	Conflicts int // collisions logged during pull
	Rejected  int // pushed items the server refused; they stay queued
}

// Engine runs bidirectional sync. At most one run per user is active at a
// time: a run requested while another is in flight is a no-op, since the
// running pass will carry any newly dirty rows on its push phase anyway.
type Engine struct {
	series     *repositories.SeriesRepository
	sermons    *repositories.SermonRepository
	conflicts  *repositories.ConflictRepository
	oplog      *repositories.OperationLog
	watermarks *repositories.WatermarkStore
	adapter    remote.Adapter
	retries    *retry.Queue
	logger     *log.Logger
	batchSize  int

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// Deps bundles the collaborators an Engine needs.
type Deps struct {
	Series     *repositories.SeriesRepository
	Sermons    *repositories.SermonRepository
	Conflicts  *repositories.ConflictRepository
	Oplog      *repositories.OperationLog
	Watermarks *repositories.WatermarkStore
	Adapter    remote.Adapter
	Retries    *retry.Queue // optional; nil disables timer retries
	Logger     *log.Logger
	BatchSize  int
}

// NewEngine creates a sync engine with the provided collaborators.
func NewEngine(deps Deps) *Engine {
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Engine{
		series:     deps.Series,
		sermons:    deps.Sermons,
		conflicts:  deps.Conflicts,
		oplog:      deps.Oplog,
		watermarks: deps.Watermarks,
		adapter:    deps.Adapter,
		retries:    deps.Retries,
		logger:     deps.Logger,
		batchSize:  batchSize,
		locks:      make(map[string]*semaphore.Weighted),
	}
}

// Sync performs one full pull-then-push pass for the user. Returns
// shared.ErrSyncBusy without doing anything when a run is already in flight
// for this user.
func (e *Engine) Sync(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*Result, error) {
	lock := e.userLock(userID)
	if !lock.TryAcquire(1) {
		return nil, shared.ErrSyncBusy
	}
	defer lock.Release(1)

	result := &Result{}

	if err := e.pullAll(ctx, userID, result, progress); err != nil {
		return result, err
	}
	if err := e.pushAll(ctx, userID, result, progress); err != nil {
		return result, err
	}

	e.sendProgress(progress, doneUpdate(result))
	if e.logger != nil {
		e.logger.Info("sync complete", "user", userID,
			"pulled", result.Pulled, "pushed", result.Pushed,
			"conflicts", result.Conflicts, "rejected", result.Rejected)
	}
	return result, nil
}

// pullAll runs the pull phase for every table.
func (e *Engine) pullAll(ctx context.Context, userID string, result *Result, progress chan<- ProgressUpdate) error {
	e.sendProgress(progress, pullingUpdate("series"))
	applied, conflicts, err := pullTable(ctx, e, userID, "series", e.adapter.PullSeries, e.series, progress)
	e.logOperation(userID, "series", models.DirectionPull, applied, err)
	if err != nil {
		return err
	}
	result.Pulled += applied
	result.Conflicts += conflicts
	e.sendProgress(progress, pulledUpdate("series", applied, conflicts))

	e.sendProgress(progress, pullingUpdate("sermons"))
	applied, conflicts, err = pullTable(ctx, e, userID, "sermons", e.adapter.PullSermons, e.sermons, progress)
	e.logOperation(userID, "sermons", models.DirectionPull, applied, err)
	if err != nil {
		return err
	}
	result.Pulled += applied
	result.Conflicts += conflicts
	e.sendProgress(progress, pulledUpdate("sermons", applied, conflicts))

	return nil
}

// pushAll runs the push phase for every table. A retryable failure is handed
// to the retry queue, which re-runs a full sync pass; a pass that finds the
// engine busy fails as a sync error and is simply rescheduled.
func (e *Engine) pushAll(ctx context.Context, userID string, result *Result, progress chan<- ProgressUpdate) error {
	pushed, rejected, err := pushTable(ctx, e, userID, "series", e.series, progress)
	e.logOperation(userID, "series", models.DirectionPush, pushed, err)
	if err != nil {
		e.scheduleRetry(userID, err)
		return err
	}
	result.Pushed += pushed
	result.Rejected += rejected

	pushed, rejected, err = pushTable(ctx, e, userID, "sermons", e.sermons, progress)
	e.logOperation(userID, "sermons", models.DirectionPush, pushed, err)
	if err != nil {
		e.scheduleRetry(userID, err)
		return err
	}
	result.Pushed += pushed
	result.Rejected += rejected

	return nil
}

// scheduleRetry queues another sync pass when the failure kind allows it.
func (e *Engine) scheduleRetry(userID string, cause error) {
	if e.retries == nil {
		return
	}
	kind := shared.KindOf(cause)
	queued := e.retries.Enqueue("sync:"+userID, kind, func(ctx context.Context) error {
		_, err := e.Sync(ctx, userID, nil)
		return err
	})
	if queued && e.logger != nil {
		e.logger.Info("sync retry queued", "user", userID, "kind", kind)
	}
}

// logOperation records one pull or push phase in the operation log. Logging
// failures are swallowed: diagnostics must never fail a sync.
func (e *Engine) logOperation(userID, table string, direction models.SyncDirection, count int, opErr error) {
	if e.oplog == nil {
		return
	}
	now := time.Now().UTC()
	entry := &models.SyncOperation{
		UserID:      userID,
		TableName:   table,
		Direction:   direction,
		RecordCount: count,
		StartedAt:   now,
		FinishedAt:  now,
	}
	if opErr != nil {
		entry.ErrorText = opErr.Error()
	}
	if err := e.oplog.Record(entry); err != nil && e.logger != nil {
		e.logger.Warn("failed to record sync operation", "err", err)
	}
}

// userLock returns the per-user run lock, creating it on first use.
func (e *Engine) userLock(userID string) *semaphore.Weighted {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		e.locks[userID] = lock
	}
	return lock
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the run.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}

// pullTable pulls one table: fetch records changed since the stored
// watermark, apply everything that does not collide with dirty local rows,
// resolve what does, then advance the watermark to the newest remote edit
// seen. The watermark only moves after every record in the page has been
// handled, so a failed pull repeats the same page next run.
func pullTable[T models.Model](
	ctx context.Context,
	e *Engine,
	userID, table string,
	pull func(context.Context, string, time.Time) ([]T, error),
	repo models.Repository[T],
	progress chan<- ProgressUpdate,
) (applied, conflicts int, err error) {
	since, err := e.watermarks.Get(userID, table)
	if err != nil {
		return 0, 0, err
	}

	records, err := pull(ctx, userID, since)
	if err != nil {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	var (
		toApply    []T
		maxUpdated time.Time
	)

	for _, rec := range records {
		if rec.Meta().UpdatedAt.After(maxUpdated) {
			maxUpdated = rec.Meta().UpdatedAt
		}

		local, err := repo.Get(userID, rec.Key())
		switch {
		case errors.Is(err, shared.ErrRecordNotFound):
			toApply = append(toApply, rec)
		case err != nil:
			return 0, 0, err
		case !local.Meta().Dirty:
			// Clean local copy: the remote row is strictly newer knowledge.
			toApply = append(toApply, rec)
		default:
			winner := resolve(local, rec)
			if logErr := e.conflicts.Record(conflictEntry(table, local, rec, winner)); logErr != nil {
				return 0, 0, logErr
			}
			conflicts++
			e.sendProgress(progress, resolvedUpdate(table, rec.Key(), string(winner)))
			if winner == models.ResolvedRemote {
				// Remote wins: overwrite the dirty row, which also clears its
				// pending push.
				toApply = append(toApply, rec)
			}
			// Local wins: leave the row dirty so push sends it back up.
		}
	}

	if err := repo.ApplyRemote(toApply); err != nil {
		return 0, 0, err
	}
	if err := e.watermarks.Advance(userID, table, maxUpdated); err != nil {
		return 0, 0, err
	}

	return len(toApply), conflicts, nil
}

// pushTable pushes one table's dirty rows in bounded batches, oldest edit
// first. Each row's version is captured when the batch is built; the ack only
// clears rows whose version has not moved, so edits racing the push stay
// queued.
func pushTable[T models.Model](
	ctx context.Context,
	e *Engine,
	userID, table string,
	repo models.Repository[T],
	progress chan<- ProgressUpdate,
) (pushed, rejected int, err error) {
	attempted := make(map[string]bool)

	for {
		dirty, err := repo.QueryDirty(userID, e.batchSize)
		if err != nil {
			return pushed, rejected, err
		}

		items := make([]remote.PushItem, 0, len(dirty))
		versions := make(map[string]int64, len(dirty))
		for _, rec := range dirty {
			if attempted[rec.Key()] {
				continue
			}
			attempted[rec.Key()] = true

			meta := rec.Meta()
			item := remote.PushItem{
				ID:        rec.Key(),
				Op:        meta.Op,
				Version:   meta.Version,
				UpdatedAt: meta.UpdatedAt,
			}
			if meta.Op != models.OpDelete {
				payload, err := json.Marshal(rec)
				if err != nil {
					return pushed, rejected, shared.E(shared.KindSync, "push "+table, err)
				}
				item.Payload = payload
			}
			versions[rec.Key()] = meta.Version
			items = append(items, item)
		}

		if len(items) == 0 {
			return pushed, rejected, nil
		}

		e.sendProgress(progress, pushingUpdate(table, len(items)))

		results, err := e.adapter.Push(ctx, table, userID, items)
		if err != nil {
			return pushed, rejected, err
		}

		now := time.Now().UTC()
		for _, res := range results {
			if !res.OK {
				rejected++
				if e.logger != nil {
					e.logger.Warn("push item rejected", "table", table, "id", res.ID, "reason", res.Error)
				}
				continue
			}
			cleared, err := repo.MarkSynced(res.ID, versions[res.ID], now)
			if err != nil {
				return pushed, rejected, err
			}
			if cleared {
				pushed++
			}
			// Not cleared: the row was edited while the batch was in flight
			// and stays dirty for the next pass.
		}

		if len(dirty) < e.batchSize {
			return pushed, rejected, nil
		}
	}
}
