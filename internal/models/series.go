package models

import (
	"fmt"
	"time"
)

// SeriesRecord is a preaching series: a titled arc of related sermons with an
// optional date range and cover image.
type SeriesRecord struct {
	BaseEntity
	SyncMeta

	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Status      SeriesStatus `json:"status"`
}

// NewSeries creates a series owned by userID with a fresh ID and sync
// metadata initialized for a first push.
func NewSeries(id, userID, title string) *SeriesRecord {
	s := &SeriesRecord{
		BaseEntity: BaseEntity{ID: id, UserID: userID},
		Title:      title,
		Status:     SeriesPlanning,
	}
	s.InitTimestamps()
	return s
}

// Table returns the local store table name for series.
func (s *SeriesRecord) Table() string { return "series" }

// Key returns the series identifier.
func (s *SeriesRecord) Key() string { return s.ID }

// Owner returns the owning user's identifier.
func (s *SeriesRecord) Owner() string { return s.UserID }

// Meta returns the embedded sync bookkeeping.
func (s *SeriesRecord) Meta() *SyncMeta { return &s.SyncMeta }

// Validate checks the series invariants before a local write.
func (s *SeriesRecord) Validate() error {
	if err := validateBase(s.BaseEntity, s.SyncMeta); err != nil {
		return err
	}
	if s.Title == "" {
		return fmt.Errorf("series title is required")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("invalid series status: %s", s.Status)
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return fmt.Errorf("series end date precedes start date")
	}
	return nil
}
