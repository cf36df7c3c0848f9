package models

import (
	"time"
)

// Model defines the base interface for all syncable entities in the Lectern client.
// Implementations include SeriesRecord and SermonRecord.
type Model interface {
	Table() string   // Table returns the local store table name for this entity type
	Key() string     // Key returns the client-generated unique identifier
	Owner() string   // Owner returns the owning user's identifier
	Meta() *SyncMeta // Meta returns the embedded sync bookkeeping for mutation
	Validate() error // Validate checks if the entity's data is valid and returns an error if not
}

// Repository defines the data access contract shared by all syncable entity tables.
// Implementations handle local store interactions for a specific entity type.
type Repository[T Model] interface {
	// Upsert inserts or replaces a locally edited entity. The write marks the
	// row dirty, bumps its version, and refreshes updated_at in the same
	// transaction as the data change.
	Upsert(entity T) error

	// Get retrieves an entity by ID regardless of soft-delete state.
	Get(userID, id string) (T, error)

	// SoftDelete marks an entity deleted by setting deleted_at. The row stays
	// in the table with op=delete until a successful push confirms the delete.
	SoftDelete(userID, id string) error

	// QueryActive retrieves non-deleted entities for a user matching the given criteria.
	QueryActive(userID string, criteria map[string]any) ([]T, error)

	// QueryDirty retrieves up to limit dirty entities for a user ordered by
	// updated_at ascending, which fixes the push order (oldest change first).
	QueryDirty(userID string, limit int) ([]T, error)

	// ApplyRemote bulk-inserts or replaces authoritative remote records.
	// Rows written this way are clean: dirty is not set and synced_at is stamped.
	ApplyRemote(records []T) error

	// MarkSynced clears the dirty flag and stamps synced_at, but only if the
	// row's version still equals the value captured when the push batch was
	// built. Returns false when the row moved and stays dirty.
	MarkSynced(id string, version int64, syncedAt time.Time) (bool, error)
}

// SyncOp is the operation a dirty row intends to push next.
type SyncOp string

const (
	OpUpsert SyncOp = "upsert"
	OpDelete SyncOp = "delete"
)

// Valid reports whether the operation is a known push intent.
func (op SyncOp) Valid() bool {
	return op == OpUpsert || op == OpDelete
}

// SeriesStatus is the lifecycle state of a series.
type SeriesStatus string

const (
	SeriesPlanning  SeriesStatus = "planning"
	SeriesActive    SeriesStatus = "active"
	SeriesCompleted SeriesStatus = "completed"
	SeriesArchived  SeriesStatus = "archived"
)

// Valid reports whether the status is one of the defined series states.
func (s SeriesStatus) Valid() bool {
	switch s {
	case SeriesPlanning, SeriesActive, SeriesCompleted, SeriesArchived:
		return true
	}
	return false
}

// SermonStatus is the preparation state of a sermon.
type SermonStatus string

const (
	SermonDraft     SermonStatus = "draft"
	SermonPreparing SermonStatus = "preparing"
	SermonReady     SermonStatus = "ready"
	SermonDelivered SermonStatus = "delivered"
	SermonArchived  SermonStatus = "archived"
)

// Valid reports whether the status is one of the defined sermon states.
func (s SermonStatus) Valid() bool {
	switch s {
	case SermonDraft, SermonPreparing, SermonReady, SermonDelivered, SermonArchived:
		return true
	}
	return false
}

// Visibility controls who may see a sermon once synced.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityCongregation Visibility = "congregation"
	VisibilityPublic       Visibility = "public"
)

// Valid reports whether the visibility is one of the defined audiences.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityCongregation, VisibilityPublic:
		return true
	}
	return false
}
