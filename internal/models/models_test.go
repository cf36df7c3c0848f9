package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncMetaLifecycle(t *testing.T) {
	t.Run("InitTimestamps", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")

		if !s.Dirty {
			t.Error("new entity should be dirty")
		}
		if s.Op != OpUpsert {
			t.Errorf("expected op %s, got %s", OpUpsert, s.Op)
		}
		if s.Version != 1 {
			t.Errorf("expected version 1, got %d", s.Version)
		}
		if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
			t.Error("timestamps should be initialized")
		}
		if s.SyncedAt != nil {
			t.Error("new entity should not have synced_at")
		}
	})

	t.Run("Touch", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		before := s.UpdatedAt

		time.Sleep(time.Millisecond)
		s.Touch()

		if s.Version != 2 {
			t.Errorf("expected version 2 after edit, got %d", s.Version)
		}
		if !s.UpdatedAt.After(before) {
			t.Error("updated_at should move forward on edit")
		}
		if !s.Dirty || s.Op != OpUpsert {
			t.Error("edit should leave the record dirty with op=upsert")
		}
	})

	t.Run("MarkDeleted", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		s.MarkDeleted()

		if !s.IsDeleted() {
			t.Error("expected deleted_at to be set")
		}
		if s.Op != OpDelete {
			t.Errorf("expected op %s, got %s", OpDelete, s.Op)
		}
		if !s.Dirty {
			t.Error("soft delete should mark the record dirty")
		}
		if s.Version != 2 {
			t.Errorf("expected version bump on delete, got %d", s.Version)
		}
	})

	t.Run("MarkSynced", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		now := time.Now().UTC()
		s.MarkSynced(now)

		if s.Dirty {
			t.Error("synced record should not be dirty")
		}
		if s.SyncedAt == nil || s.SyncedAt.Before(s.UpdatedAt) {
			t.Error("synced_at should be set and not precede updated_at")
		}
		if s.Version != 1 {
			t.Errorf("push confirmation must not change version, got %d", s.Version)
		}
	})
}

func TestSeriesValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		if err := s.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("MissingTitle", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "")
		if err := s.Validate(); err == nil {
			t.Error("expected error for missing title")
		}
	})

	t.Run("MissingUser", func(t *testing.T) {
		s := NewSeries("s-1", "", "Advent")
		if err := s.Validate(); err == nil {
			t.Error("expected error for missing user id")
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		s.Status = SeriesStatus("paused")
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown status")
		}
	})

	t.Run("InvertedDateRange", func(t *testing.T) {
		s := NewSeries("s-1", "u-1", "Advent")
		start := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, -1, 0)
		s.StartDate = &start
		s.EndDate = &end
		if err := s.Validate(); err == nil {
			t.Error("expected error for end date before start date")
		}
	})
}

func TestSermonValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := NewSermon("m-1", "u-1", "The Prodigal Son")
		s.Outline = json.RawMessage(`{"points":["lost","found"]}`)
		if err := s.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		s := NewSermon("m-1", "u-1", "The Prodigal Son")
		if s.Status != SermonDraft {
			t.Errorf("expected draft status, got %s", s.Status)
		}
		if s.Visibility != VisibilityPrivate {
			t.Errorf("expected private visibility, got %s", s.Visibility)
		}
	})

	t.Run("BadVisibility", func(t *testing.T) {
		s := NewSermon("m-1", "u-1", "The Prodigal Son")
		s.Visibility = Visibility("everyone")
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown visibility")
		}
	})

	t.Run("MalformedOutline", func(t *testing.T) {
		s := NewSermon("m-1", "u-1", "The Prodigal Son")
		s.Outline = json.RawMessage(`{"points":`)
		if err := s.Validate(); err == nil {
			t.Error("expected error for malformed outline blob")
		}
	})
}
