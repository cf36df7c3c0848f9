package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SermonRecord is an individual sermon. The Outline field is an opaque
// structured blob owned by the editing layer; the sync core stores and ships
// it without parsing.
type SermonRecord struct {
	BaseEntity
	SyncMeta

	Title      string          `json:"title"`
	Content    string          `json:"content,omitempty"`
	Outline    json.RawMessage `json:"outline,omitempty"`
	Scripture  string          `json:"scripture,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Status     SermonStatus    `json:"status"`
	Visibility Visibility      `json:"visibility"`
	Date       *time.Time      `json:"date,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	SeriesID   string          `json:"series_id,omitempty"`
}

// NewSermon creates a sermon owned by userID with a fresh ID and sync
// metadata initialized for a first push.
func NewSermon(id, userID, title string) *SermonRecord {
	s := &SermonRecord{
		BaseEntity: BaseEntity{ID: id, UserID: userID},
		Title:      title,
		Status:     SermonDraft,
		Visibility: VisibilityPrivate,
	}
	s.InitTimestamps()
	return s
}

// Table returns the local store table name for sermons.
func (s *SermonRecord) Table() string { return "sermons" }

// Key returns the sermon identifier.
func (s *SermonRecord) Key() string { return s.ID }

// Owner returns the owning user's identifier.
func (s *SermonRecord) Owner() string { return s.UserID }

// Meta returns the embedded sync bookkeeping.
func (s *SermonRecord) Meta() *SyncMeta { return &s.SyncMeta }

// Validate checks the sermon invariants before a local write.
// Series ownership (SeriesID must reference a series with the same UserID)
// is checked at the repository layer where the series table is reachable.
func (s *SermonRecord) Validate() error {
	if err := validateBase(s.BaseEntity, s.SyncMeta); err != nil {
		return err
	}
	if s.Title == "" {
		return fmt.Errorf("sermon title is required")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("invalid sermon status: %s", s.Status)
	}
	if !s.Visibility.Valid() {
		return fmt.Errorf("invalid sermon visibility: %s", s.Visibility)
	}
	if len(s.Outline) > 0 && !json.Valid(s.Outline) {
		return fmt.Errorf("sermon outline is not valid JSON")
	}
	return nil
}
