// package diagnostics reports on and resets the local store.
//
// Everything here is an escape hatch for support scenarios: inspecting how
// much data is waiting to sync, and the three levels of reset (sync state,
// auth state, everything).
package diagnostics

import (
	"database/sql"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lecternhq/lectern/internal/repositories"
	"github.com/lecternhq/lectern/internal/shared"
)

// DataStatus is a snapshot of one user's local store.
type DataStatus struct {
	SeriesCount   int       // non-deleted series
	SermonCount   int       // non-deleted sermons
	DirtySeries   int       // series awaiting push
	DirtySermons  int       // sermons awaiting push
	ConflictCount int       // logged conflicts
	HasCachedAuth bool      // cached credentials present
	SeriesPulled  time.Time // series pull watermark, zero if never pulled
	SermonsPulled time.Time // sermons pull watermark, zero if never pulled
}

// Service answers status queries and performs resets.
type Service struct {
	db         *sql.DB
	series     *repositories.SeriesRepository
	sermons    *repositories.SermonRepository
	conflicts  *repositories.ConflictRepository
	oplog      *repositories.OperationLog
	watermarks *repositories.WatermarkStore
	auth       *repositories.AuthStateRepository
	logger     *log.Logger
}

// NewService creates a diagnostics service over the given database.
func NewService(db *sql.DB, logger *log.Logger) *Service {
	return &Service{
		db:         db,
		series:     repositories.NewSeriesRepository(db),
		sermons:    repositories.NewSermonRepository(db),
		conflicts:  repositories.NewConflictRepository(db),
		oplog:      repositories.NewOperationLog(db),
		watermarks: repositories.NewWatermarkStore(db),
		auth:       repositories.NewAuthStateRepository(db),
		logger:     logger,
	}
}

// Status gathers the current snapshot for a user.
func (s *Service) Status(userID string) (*DataStatus, error) {
	status := &DataStatus{}
	var err error

	if status.SeriesCount, err = s.series.CountActive(userID); err != nil {
		return nil, err
	}
	if status.SermonCount, err = s.sermons.CountActive(userID); err != nil {
		return nil, err
	}
	if status.DirtySeries, err = s.series.CountDirty(userID); err != nil {
		return nil, err
	}
	if status.DirtySermons, err = s.sermons.CountDirty(userID); err != nil {
		return nil, err
	}
	if status.ConflictCount, err = s.conflicts.Count(userID); err != nil {
		return nil, err
	}
	if status.HasCachedAuth, err = s.auth.HasCached(userID); err != nil {
		return nil, err
	}
	if status.SeriesPulled, err = s.watermarks.Get(userID, "series"); err != nil {
		return nil, err
	}
	if status.SermonsPulled, err = s.watermarks.Get(userID, "sermons"); err != nil {
		return nil, err
	}

	return status, nil
}

// ResetSyncState clears all sync bookkeeping for a user without touching the
// content rows: pending pushes are abandoned, conflicts and the operation log
// are cleared, and watermarks reset so the next sync does a full pull.
func (s *Service) ResetSyncState(userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "reset sync state", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		"UPDATE series SET dirty = 0, op = 'upsert' WHERE user_id = ?",
		"UPDATE sermons SET dirty = 0, op = 'upsert' WHERE user_id = ?",
		"DELETE FROM conflicts WHERE user_id = ?",
		"DELETE FROM sync_operations WHERE user_id = ?",
		"DELETE FROM sync_state WHERE user_id = ?",
	} {
		if _, err := tx.Exec(query, userID); err != nil {
			return shared.E(shared.KindLocalStorage, "reset sync state", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "reset sync state", err)
	}
	if s.logger != nil {
		s.logger.Info("sync state reset", "user", userID)
	}
	return nil
}

// ResetAuth removes the cached-credential marker for a user.
func (s *Service) ResetAuth(userID string) error {
	if err := s.auth.Clear(userID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("auth state reset", "user", userID)
	}
	return nil
}

// ResetAll wipes the entire local store: content, conflicts, operation log,
// watermarks, and auth state for every user. The schema is kept so the app
// starts over as if freshly installed.
func (s *Service) ResetAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "reset local data", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"series", "sermons", "conflicts", "sync_operations", "sync_state", "auth_state"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return shared.E(shared.KindLocalStorage, "reset local data", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "reset local data", err)
	}
	if s.logger != nil {
		s.logger.Warn("local data wiped")
	}
	return nil
}
