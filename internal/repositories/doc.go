// package repositories provides persistence layer implementations over the
// local SQLite store.
//
// SeriesRepository and SermonRepository implement models.Repository[T] for
// the two syncable entity types, writing sync bookkeeping (dirty, op,
// version) atomically with the data change it describes. The remaining
// repositories cover diagnostic tables: conflicts, the sync operation log,
// per-table pull watermarks, and cached auth state.
package repositories
