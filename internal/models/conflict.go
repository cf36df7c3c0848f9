package models

import "time"

// ResolvedWith names the side whose field values survived a conflict.
type ResolvedWith string

const (
	ResolvedLocal  ResolvedWith = "local"
	ResolvedRemote ResolvedWith = "remote"
)

// ConflictRecord is a diagnostic log entry, not user data. Exactly one is
// written each time pull finds a remote row colliding with a dirty local row,
// regardless of which side wins.
type ConflictRecord struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	TableName      string       `json:"table"`
	RecordID       string       `json:"record_id"`
	LocalUpdatedAt time.Time    `json:"local_updated_at"`
	RemoteUpdated  time.Time    `json:"remote_updated_at"`
	ResolvedWith   ResolvedWith `json:"resolved_with"`
	CreatedAt      time.Time    `json:"created_at"`
}

// SyncDirection is the phase a sync_operations row describes.
type SyncDirection string

const (
	DirectionPull SyncDirection = "pull"
	DirectionPush SyncDirection = "push"
)

// SyncOperation is a diagnostic log entry for one pull or push phase of a
// sync run: which table, how many records moved, and whether it failed.
type SyncOperation struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	TableName   string        `json:"table"`
	Direction   SyncDirection `json:"direction"`
	RecordCount int           `json:"record_count"`
	ErrorText   string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}
