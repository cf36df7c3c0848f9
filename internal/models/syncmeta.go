package models

import (
	"fmt"
	"time"
)

// BaseEntity carries the identity fields shared by all syncable entities.
// ID is client-generated, immutable once assigned, and never reused.
// UserID scopes every query; entities never move between users.
type BaseEntity struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// SyncMeta provides per-record sync bookkeeping embedded in every syncable
// entity. The dirty flag, op, and version together form the outbox: there is
// no separate journal, so these fields must be written atomically with the
// data change they describe.
type SyncMeta struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
	Dirty     bool       `json:"dirty"`
	Op        SyncOp     `json:"op"`
	Version   int64      `json:"version"`
}

// InitTimestamps prepares the metadata for a newly created entity:
// both timestamps set to now, dirty with op=upsert at version 1.
func (m *SyncMeta) InitTimestamps() {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Dirty = true
	m.Op = OpUpsert
	m.Version = 1
}

// Touch records a local edit: refreshes UpdatedAt, marks the record dirty
// with op=upsert, and increments the version counter.
// Call this whenever the underlying entity changes.
func (m *SyncMeta) Touch() {
	m.UpdatedAt = time.Now().UTC()
	m.Dirty = true
	m.Op = OpUpsert
	m.Version++
}

// MarkDeleted soft-deletes the record. The row remains in storage with
// op=delete until the delete is confirmed pushed. UpdatedAt is refreshed so
// the deletion participates in push ordering and conflict comparison.
func (m *SyncMeta) MarkDeleted() {
	now := time.Now().UTC()
	m.DeletedAt = &now
	m.UpdatedAt = now
	m.Dirty = true
	m.Op = OpDelete
	m.Version++
}

// MarkSynced records a confirmed push: the record is clean as of syncedAt.
func (m *SyncMeta) MarkSynced(syncedAt time.Time) {
	t := syncedAt.UTC()
	m.SyncedAt = &t
	m.Dirty = false
}

// IsDeleted returns true if this entity has been soft-deleted.
func (m *SyncMeta) IsDeleted() bool {
	return m.DeletedAt != nil
}

// validateBase checks the identity and bookkeeping invariants common to all
// syncable entities.
func validateBase(b BaseEntity, m SyncMeta) error {
	if b.ID == "" {
		return fmt.Errorf("id is required")
	}
	if b.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if m.Op != "" && !m.Op.Valid() {
		return fmt.Errorf("invalid sync op: %s", m.Op)
	}
	if m.Version < 0 {
		return fmt.Errorf("version must not be negative")
	}
	return nil
}
