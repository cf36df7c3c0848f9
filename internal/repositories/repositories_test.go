package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSeriesRepository(t *testing.T) {
	t.Run("Upsert And Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		series.Description = "Four weeks of waiting"
		series.Tags = []string{"advent", "liturgical"}

		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		got, err := repo.Get("user-1", series.ID)
		if err != nil {
			t.Fatalf("failed to get series: %v", err)
		}
		if got.Title != "Advent" {
			t.Errorf("expected title Advent, got %s", got.Title)
		}
		if !got.Dirty {
			t.Error("new series should be dirty")
		}
		if got.Op != models.OpUpsert {
			t.Errorf("expected op upsert, got %s", got.Op)
		}
		if got.Version != 1 {
			t.Errorf("expected version 1, got %d", got.Version)
		}
		if len(got.Tags) != 2 || got.Tags[0] != "advent" {
			t.Errorf("tags did not round-trip: %v", got.Tags)
		}
	})

	t.Run("Upsert Existing Bumps Version", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		series.Title = "Advent 2026"
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert edit: %v", err)
		}

		got, err := repo.Get("user-1", series.ID)
		if err != nil {
			t.Fatalf("failed to get series: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("expected version 2 after edit, got %d", got.Version)
		}
		if got.Title != "Advent 2026" {
			t.Errorf("edit did not persist: %s", got.Title)
		}
	})

	t.Run("Upsert Rejects Foreign Row", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		stolen := models.NewSeries(series.ID, "user-2", "Hijack")
		err := repo.Upsert(stolen)
		if err == nil {
			t.Fatal("expected error upserting another user's row")
		}
		if shared.KindOf(err) != shared.KindValidation {
			t.Errorf("expected validation kind, got %s", shared.KindOf(err))
		}
	})

	t.Run("Upsert Invalid", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "")
		err := repo.Upsert(series)
		if err == nil {
			t.Fatal("expected validation error for empty title")
		}
		if shared.KindOf(err) != shared.KindValidation {
			t.Errorf("expected validation kind, got %s", shared.KindOf(err))
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		if err := repo.SoftDelete("user-1", series.ID); err != nil {
			t.Fatalf("failed to soft delete: %v", err)
		}

		got, err := repo.Get("user-1", series.ID)
		if err != nil {
			t.Fatalf("soft-deleted row should still be readable: %v", err)
		}
		if !got.IsDeleted() {
			t.Error("expected deleted_at to be set")
		}
		if got.Op != models.OpDelete {
			t.Errorf("expected op delete, got %s", got.Op)
		}
		if got.Version != 2 {
			t.Errorf("expected version bump on delete, got %d", got.Version)
		}

		active, err := repo.QueryActive("user-1", nil)
		if err != nil {
			t.Fatalf("failed to query active: %v", err)
		}
		if len(active) != 0 {
			t.Errorf("soft-deleted series should not appear in active list, got %d", len(active))
		}

		if err := repo.SoftDelete("user-1", series.ID); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("double delete should report record not found, got %v", err)
		}
	})

	t.Run("QueryActive Criteria", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		active := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		active.Status = models.SeriesActive
		planning := models.NewSeries(shared.GenerateID(), "user-1", "Lent")
		other := models.NewSeries(shared.GenerateID(), "user-2", "Easter")

		for _, s := range []*models.SeriesRecord{active, planning, other} {
			if err := repo.Upsert(s); err != nil {
				t.Fatalf("failed to upsert series: %v", err)
			}
		}

		mine, err := repo.QueryActive("user-1", nil)
		if err != nil {
			t.Fatalf("failed to query active: %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("expected 2 series for user-1, got %d", len(mine))
		}

		filtered, err := repo.QueryActive("user-1", map[string]any{"status": "active"})
		if err != nil {
			t.Fatalf("failed to query with criteria: %v", err)
		}
		if len(filtered) != 1 || filtered[0].ID != active.ID {
			t.Errorf("status filter returned wrong rows: %d", len(filtered))
		}
	})

	t.Run("QueryDirty Order And Limit", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		base := time.Now().UTC().Add(-time.Hour)
		var ids []string
		for i := 0; i < 3; i++ {
			s := models.NewSeries(shared.GenerateID(), "user-1", "Series")
			if err := repo.Upsert(s); err != nil {
				t.Fatalf("failed to upsert series: %v", err)
			}
			ids = append(ids, s.ID)
		}

		// Stamp distinct edit times, newest first in insert order.
		for i, id := range ids {
			at := base.Add(time.Duration(len(ids)-i) * time.Minute)
			if _, err := db.Exec("UPDATE series SET updated_at = ? WHERE id = ?", at, id); err != nil {
				t.Fatalf("failed to stamp updated_at: %v", err)
			}
		}

		dirty, err := repo.QueryDirty("user-1", 2)
		if err != nil {
			t.Fatalf("failed to query dirty: %v", err)
		}
		if len(dirty) != 2 {
			t.Fatalf("expected limit of 2 rows, got %d", len(dirty))
		}
		if dirty[0].ID != ids[2] || dirty[1].ID != ids[1] {
			t.Error("dirty rows should be ordered oldest edit first")
		}
	})

	t.Run("ApplyRemote Writes Clean Rows", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		remote := models.NewSeries(shared.GenerateID(), "user-1", "From Server")
		remote.Dirty = false
		remote.Version = 7

		if err := repo.ApplyRemote([]*models.SeriesRecord{remote}); err != nil {
			t.Fatalf("failed to apply remote: %v", err)
		}

		got, err := repo.Get("user-1", remote.ID)
		if err != nil {
			t.Fatalf("failed to get series: %v", err)
		}
		if got.Dirty {
			t.Error("remote rows must land clean")
		}
		if got.SyncedAt == nil {
			t.Error("remote rows must be stamped synced_at")
		}
		if got.Version != 7 {
			t.Errorf("remote version should be preserved, got %d", got.Version)
		}

		dirty, err := repo.QueryDirty("user-1", 10)
		if err != nil {
			t.Fatalf("failed to query dirty: %v", err)
		}
		if len(dirty) != 0 {
			t.Errorf("remote rows should not be queued for push, got %d", len(dirty))
		}
	})

	t.Run("MarkSynced Version Check", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		ok, err := repo.MarkSynced(series.ID, 1, time.Now())
		if err != nil {
			t.Fatalf("failed to mark synced: %v", err)
		}
		if !ok {
			t.Fatal("expected ack to clear the row")
		}

		got, err := repo.Get("user-1", series.ID)
		if err != nil {
			t.Fatalf("failed to get series: %v", err)
		}
		if got.Dirty {
			t.Error("acked row should be clean")
		}
		if got.SyncedAt == nil {
			t.Error("acked row should carry synced_at")
		}

		// Row edited after the batch was captured: stale version must not clear it.
		series.Title = "Advent again"
		if err := repo.Upsert(series); err != nil {
			t.Fatalf("failed to re-edit series: %v", err)
		}
		ok, err = repo.MarkSynced(series.ID, 1, time.Now())
		if err != nil {
			t.Fatalf("failed to mark synced: %v", err)
		}
		if ok {
			t.Error("stale version should not clear the dirty flag")
		}

		got, err = repo.Get("user-1", series.ID)
		if err != nil {
			t.Fatalf("failed to get series: %v", err)
		}
		if !got.Dirty {
			t.Error("re-edited row must stay dirty after stale ack")
		}
	})

	t.Run("Counts", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSeriesRepository(db)

		a := models.NewSeries(shared.GenerateID(), "user-1", "A")
		b := models.NewSeries(shared.GenerateID(), "user-1", "B")
		for _, s := range []*models.SeriesRecord{a, b} {
			if err := repo.Upsert(s); err != nil {
				t.Fatalf("failed to upsert: %v", err)
			}
		}
		if _, err := repo.MarkSynced(a.ID, 1, time.Now()); err != nil {
			t.Fatalf("failed to mark synced: %v", err)
		}
		if err := repo.SoftDelete("user-1", b.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		activeCount, err := repo.CountActive("user-1")
		if err != nil {
			t.Fatalf("failed to count active: %v", err)
		}
		if activeCount != 1 {
			t.Errorf("expected 1 active series, got %d", activeCount)
		}

		dirtyCount, err := repo.CountDirty("user-1")
		if err != nil {
			t.Fatalf("failed to count dirty: %v", err)
		}
		if dirtyCount != 1 {
			t.Errorf("expected 1 dirty series (the delete), got %d", dirtyCount)
		}
	})
}

func TestSermonRepository(t *testing.T) {
	t.Run("Upsert Requires Owned Series", func(t *testing.T) {
		db := setupTestDB(t)
		seriesRepo := NewSeriesRepository(db)
		repo := NewSermonRepository(db)

		theirSeries := models.NewSeries(shared.GenerateID(), "user-2", "Theirs")
		if err := seriesRepo.Upsert(theirSeries); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		sermon := models.NewSermon(shared.GenerateID(), "user-1", "Borrowed Arc")
		sermon.SeriesID = theirSeries.ID
		err := repo.Upsert(sermon)
		if err == nil {
			t.Fatal("expected error linking to another user's series")
		}
		if shared.KindOf(err) != shared.KindValidation {
			t.Errorf("expected validation kind, got %s", shared.KindOf(err))
		}

		mySeries := models.NewSeries(shared.GenerateID(), "user-1", "Mine")
		if err := seriesRepo.Upsert(mySeries); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}
		sermon.SeriesID = mySeries.ID
		if err := repo.Upsert(sermon); err != nil {
			t.Fatalf("failed to upsert sermon with owned series: %v", err)
		}
	})

	t.Run("Outline Round Trip", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSermonRepository(db)

		sermon := models.NewSermon(shared.GenerateID(), "user-1", "On Hope")
		sermon.Outline = []byte(`{"points":["intro","body","close"]}`)
		sermon.Scripture = "Romans 5:1-5"
		sermon.Tags = []string{"hope"}

		if err := repo.Upsert(sermon); err != nil {
			t.Fatalf("failed to upsert sermon: %v", err)
		}

		got, err := repo.Get("user-1", sermon.ID)
		if err != nil {
			t.Fatalf("failed to get sermon: %v", err)
		}
		if string(got.Outline) != `{"points":["intro","body","close"]}` {
			t.Errorf("outline did not round-trip: %s", got.Outline)
		}
		if got.Scripture != "Romans 5:1-5" {
			t.Errorf("scripture did not round-trip: %s", got.Scripture)
		}
		if got.Status != models.SermonDraft || got.Visibility != models.VisibilityPrivate {
			t.Error("new sermon should default to draft/private")
		}
	})

	t.Run("QueryActive By Series", func(t *testing.T) {
		db := setupTestDB(t)
		seriesRepo := NewSeriesRepository(db)
		repo := NewSermonRepository(db)

		series := models.NewSeries(shared.GenerateID(), "user-1", "Advent")
		if err := seriesRepo.Upsert(series); err != nil {
			t.Fatalf("failed to upsert series: %v", err)
		}

		inSeries := models.NewSermon(shared.GenerateID(), "user-1", "Week 1")
		inSeries.SeriesID = series.ID
		standalone := models.NewSermon(shared.GenerateID(), "user-1", "One Off")
		for _, s := range []*models.SermonRecord{inSeries, standalone} {
			if err := repo.Upsert(s); err != nil {
				t.Fatalf("failed to upsert sermon: %v", err)
			}
		}

		got, err := repo.QueryActive("user-1", map[string]any{"series_id": series.ID})
		if err != nil {
			t.Fatalf("failed to query by series: %v", err)
		}
		if len(got) != 1 || got[0].ID != inSeries.ID {
			t.Errorf("series filter returned wrong rows: %d", len(got))
		}
	})

	t.Run("MarkSynced After Delete Keeps Tombstone", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSermonRepository(db)

		sermon := models.NewSermon(shared.GenerateID(), "user-1", "On Hope")
		if err := repo.Upsert(sermon); err != nil {
			t.Fatalf("failed to upsert sermon: %v", err)
		}
		if err := repo.SoftDelete("user-1", sermon.ID); err != nil {
			t.Fatalf("failed to delete sermon: %v", err)
		}

		ok, err := repo.MarkSynced(sermon.ID, 2, time.Now())
		if err != nil {
			t.Fatalf("failed to ack delete: %v", err)
		}
		if !ok {
			t.Fatal("expected delete ack to clear the row")
		}

		got, err := repo.Get("user-1", sermon.ID)
		if err != nil {
			t.Fatalf("tombstone should remain readable: %v", err)
		}
		if got.Dirty || !got.IsDeleted() {
			t.Error("acked delete should be a clean tombstone")
		}
	})
}

func TestConflictRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConflictRepository(db)

	c := &models.ConflictRecord{
		UserID:         "user-1",
		TableName:      "sermons",
		RecordID:       "rec-1",
		LocalUpdatedAt: time.Now().UTC().Add(-time.Minute),
		RemoteUpdated:  time.Now().UTC(),
		ResolvedWith:   models.ResolvedRemote,
	}

	if err := repo.Record(c); err != nil {
		t.Fatalf("failed to record conflict: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated conflict id")
	}

	list, err := repo.List("user-1")
	if err != nil {
		t.Fatalf("failed to list conflicts: %v", err)
	}
	if len(list) != 1 || list[0].ResolvedWith != models.ResolvedRemote {
		t.Errorf("unexpected conflict list: %+v", list)
	}

	count, err := repo.Count("user-1")
	if err != nil {
		t.Fatalf("failed to count conflicts: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 conflict, got %d", count)
	}

	if err := repo.Clear("user-1"); err != nil {
		t.Fatalf("failed to clear conflicts: %v", err)
	}
	count, _ = repo.Count("user-1")
	if count != 0 {
		t.Errorf("expected 0 conflicts after clear, got %d", count)
	}
}

func TestOperationLog(t *testing.T) {
	db := setupTestDB(t)
	log := NewOperationLog(db)

	first := &models.SyncOperation{
		UserID:      "user-1",
		TableName:   "series",
		Direction:   models.DirectionPull,
		RecordCount: 3,
		StartedAt:   time.Now().UTC().Add(-2 * time.Minute),
		FinishedAt:  time.Now().UTC().Add(-2 * time.Minute),
	}
	second := &models.SyncOperation{
		UserID:      "user-1",
		TableName:   "sermons",
		Direction:   models.DirectionPush,
		RecordCount: 1,
		ErrorText:   "sync batch rejected",
		StartedAt:   time.Now().UTC(),
		FinishedAt:  time.Now().UTC(),
	}

	for _, op := range []*models.SyncOperation{first, second} {
		if err := log.Record(op); err != nil {
			t.Fatalf("failed to record operation: %v", err)
		}
	}

	recent, err := log.Recent("user-1", 10)
	if err != nil {
		t.Fatalf("failed to list operations: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(recent))
	}
	if recent[0].TableName != "sermons" {
		t.Error("operations should be ordered newest first")
	}
	if recent[0].ErrorText != "sync batch rejected" {
		t.Errorf("error text did not round-trip: %s", recent[0].ErrorText)
	}

	limited, err := log.Recent("user-1", 1)
	if err != nil {
		t.Fatalf("failed to list with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	if err := log.Clear("user-1"); err != nil {
		t.Fatalf("failed to clear operations: %v", err)
	}
	recent, _ = log.Recent("user-1", 10)
	if len(recent) != 0 {
		t.Errorf("expected empty log after clear, got %d", len(recent))
	}
}

func TestWatermarkStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewWatermarkStore(db)

	t.Run("Zero Before First Pull", func(t *testing.T) {
		mark, err := store.Get("user-1", "series")
		if err != nil {
			t.Fatalf("failed to get watermark: %v", err)
		}
		if !mark.IsZero() {
			t.Errorf("expected zero watermark, got %v", mark)
		}
	})

	t.Run("Advance Is Monotonic", func(t *testing.T) {
		newer := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)

		if err := store.Advance("user-1", "series", newer); err != nil {
			t.Fatalf("failed to advance: %v", err)
		}
		mark, err := store.Get("user-1", "series")
		if err != nil {
			t.Fatalf("failed to get watermark: %v", err)
		}
		if !mark.Equal(newer) {
			t.Errorf("expected %v, got %v", newer, mark)
		}

		// Attempting to rewind must be a no-op.
		if err := store.Advance("user-1", "series", older); err != nil {
			t.Fatalf("failed on stale advance: %v", err)
		}
		mark, _ = store.Get("user-1", "series")
		if !mark.Equal(newer) {
			t.Errorf("watermark rewound to %v", mark)
		}

		// Tables are independent.
		mark, _ = store.Get("user-1", "sermons")
		if !mark.IsZero() {
			t.Errorf("sermons watermark should be untouched, got %v", mark)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := store.Clear("user-1"); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		mark, _ := store.Get("user-1", "series")
		if !mark.IsZero() {
			t.Errorf("expected zero watermark after clear, got %v", mark)
		}
	})
}

func TestAuthStateRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthStateRepository(db)

	has, err := repo.HasCached("user-1")
	if err != nil {
		t.Fatalf("failed to check auth state: %v", err)
	}
	if has {
		t.Error("expected no cached auth initially")
	}

	if err := repo.Set("user-1", "oauth"); err != nil {
		t.Fatalf("failed to set auth state: %v", err)
	}
	has, _ = repo.HasCached("user-1")
	if !has {
		t.Error("expected cached auth after set")
	}

	if err := repo.Clear("user-1"); err != nil {
		t.Fatalf("failed to clear auth state: %v", err)
	}
	has, _ = repo.HasCached("user-1")
	if has {
		t.Error("expected no cached auth after clear")
	}
}
