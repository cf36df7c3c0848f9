// Package models defines domain entities and persistence interfaces for the Lectern sync client.
//
// The package contains two categories of types:
//
// 1. Sync bookkeeping embedded in every syncable entity:
//   - [BaseEntity] : client-generated identifier and owning user
//   - [SyncMeta] : timestamps, dirty flag, intended operation, and version counter
//
// 2. Persistent entities backed by the local store:
//   - [SeriesRecord] : a preaching series grouping related sermons
//   - [SermonRecord] : an individual sermon, optionally attached to a series
//   - [ConflictRecord] : diagnostic log entry written when pull detects divergence
//   - [SyncOperation] : diagnostic log entry for each pull/push phase of a sync run
//
// Every local mutation must go through the SyncMeta helpers (Touch, MarkDeleted)
// so the dirty flag, version counter, and updated_at stay consistent with what
// the sync orchestrator pushes. The Repository[T] interface defines the store
// operations the orchestrator depends on.
package models
