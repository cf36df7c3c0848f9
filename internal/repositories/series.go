package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// SeriesRepository implements models.Repository[*models.SeriesRecord].
//
// Handles series CRUD with soft delete support and the sync bookkeeping
// writes that keep the dirty flag, op, and version consistent with the data.
type SeriesRepository struct {
	db *sql.DB
}

// NewSeriesRepository creates a new SeriesRepository with the given database connection
func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// Upsert inserts or replaces a locally edited series. When the row already
// exists the sync metadata is touched (dirty, op=upsert, version+1); a brand
// new record keeps the metadata set by models.NewSeries. Bookkeeping and data
// land in the same transaction.
func (r *SeriesRepository) Upsert(series *models.SeriesRecord) error {
	if err := series.Validate(); err != nil {
		return shared.E(shared.KindValidation, "upsert series", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "upsert series", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRow("SELECT user_id FROM series WHERE id = ?", series.ID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		if series.Version == 0 {
			series.InitTimestamps()
		}
	case err != nil:
		return shared.E(shared.KindLocalStorage, "upsert series", err)
	case owner != series.UserID:
		return shared.E(shared.KindValidation, "upsert series", fmt.Errorf("series %s belongs to another user", series.ID))
	default:
		series.Touch()
	}

	if err := writeSeries(tx, series); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "upsert series", err)
	}
	return nil
}

// Get retrieves a series by ID regardless of soft-delete state.
func (r *SeriesRepository) Get(userID, id string) (*models.SeriesRecord, error) {
	query := seriesSelect + " WHERE id = ? AND user_id = ?"
	series, err := scanSeries(r.db.QueryRow(query, id, userID))
	if err == sql.ErrNoRows {
		return nil, shared.E(shared.KindLocalStorage, "get series", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "get series", err)
	}
	return series, nil
}

// SoftDelete marks a series deleted. The row stays in the table with
// op=delete and a bumped version until a successful push confirms the delete.
func (r *SeriesRepository) SoftDelete(userID, id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE series
		SET deleted_at = ?, updated_at = ?, dirty = 1, op = 'delete', version = version + 1
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, now, id, userID)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "delete series", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "delete series", err)
	}
	if rows == 0 {
		return shared.E(shared.KindLocalStorage, "delete series", shared.ErrRecordNotFound)
	}
	return nil
}

// QueryActive retrieves non-deleted series for a user matching the given criteria.
func (r *SeriesRepository) QueryActive(userID string, criteria map[string]any) ([]*models.SeriesRecord, error) {
	query := seriesSelect + " WHERE user_id = ? AND deleted_at IS NULL"
	args := []any{userID}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "list series", err)
	}
	defer rows.Close()

	return collectSeries(rows)
}

// QueryDirty retrieves up to limit dirty series ordered by updated_at
// ascending, which fixes the push order (oldest change first).
func (r *SeriesRepository) QueryDirty(userID string, limit int) ([]*models.SeriesRecord, error) {
	query := seriesSelect + " WHERE user_id = ? AND dirty = 1 ORDER BY updated_at ASC LIMIT ?"

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "query dirty series", err)
	}
	defer rows.Close()

	return collectSeries(rows)
}

// ApplyRemote bulk-replaces series rows with authoritative remote records.
// Rows written this way are clean: dirty stays unset and synced_at is stamped.
func (r *SeriesRepository) ApplyRemote(records []*models.SeriesRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "apply remote series", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, series := range records {
		series.Dirty = false
		series.Op = models.OpUpsert
		series.SyncedAt = &now
		if err := writeSeries(tx, series); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "apply remote series", err)
	}
	return nil
}

// MarkSynced clears the dirty flag and stamps synced_at, but only if the row
// version still equals the value captured when the push batch was built.
// Returns false when the row moved underneath the push and stays dirty.
func (r *SeriesRepository) MarkSynced(id string, version int64, syncedAt time.Time) (bool, error) {
	query := `
		UPDATE series
		SET dirty = 0, synced_at = ?
		WHERE id = ? AND version = ? AND dirty = 1
	`

	result, err := r.db.Exec(query, syncedAt.UTC(), id, version)
	if err != nil {
		return false, shared.E(shared.KindLocalStorage, "ack series", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, shared.E(shared.KindLocalStorage, "ack series", err)
	}
	return rows > 0, nil
}

// CountActive returns the number of non-deleted series for a user.
func (r *SeriesRepository) CountActive(userID string) (int, error) {
	return countWhere(r.db, "series", "user_id = ? AND deleted_at IS NULL", userID)
}

// CountDirty returns the number of series awaiting push for a user.
func (r *SeriesRepository) CountDirty(userID string) (int, error) {
	return countWhere(r.db, "series", "user_id = ? AND dirty = 1", userID)
}

const seriesSelect = `
	SELECT id, user_id, title, description, start_date, end_date, image_url, tags, status,
	       created_at, updated_at, deleted_at, synced_at, dirty, op, version
	FROM series`

// writeSeries replaces the full row inside the caller's transaction.
func writeSeries(tx *sql.Tx, series *models.SeriesRecord) error {
	tags, err := marshalTags(series.Tags)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "write series", err)
	}

	query := `
		INSERT OR REPLACE INTO series
			(id, user_id, title, description, start_date, end_date, image_url, tags, status,
			 created_at, updated_at, deleted_at, synced_at, dirty, op, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		series.ID,
		series.UserID,
		series.Title,
		series.Description,
		timePtr(series.StartDate),
		timePtr(series.EndDate),
		series.ImageURL,
		tags,
		string(series.Status),
		series.CreatedAt,
		series.UpdatedAt,
		timePtr(series.DeletedAt),
		timePtr(series.SyncedAt),
		series.Dirty,
		string(series.Op),
		series.Version,
	)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "write series", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSeries scans a single row into a [models.SeriesRecord]
func scanSeries(row scanner) (*models.SeriesRecord, error) {
	var (
		id          string
		userID      string
		title       string
		description string
		startDate   sql.NullTime
		endDate     sql.NullTime
		imageURL    string
		tagsRaw     string
		status      string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
		syncedAt    sql.NullTime
		dirty       bool
		op          string
		version     int64
	)

	err := row.Scan(&id, &userID, &title, &description, &startDate, &endDate, &imageURL, &tagsRaw, &status,
		&createdAt, &updatedAt, &deletedAt, &syncedAt, &dirty, &op, &version)
	if err != nil {
		return nil, err
	}

	tags, err := unmarshalTags(tagsRaw)
	if err != nil {
		return nil, err
	}

	series := &models.SeriesRecord{
		BaseEntity: models.BaseEntity{ID: id, UserID: userID},
		SyncMeta: models.SyncMeta{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
			Dirty:     dirty,
			Op:        models.SyncOp(op),
			Version:   version,
		},
		Title:       title,
		Description: description,
		ImageURL:    imageURL,
		Tags:        tags,
		Status:      models.SeriesStatus(status),
	}
	if startDate.Valid {
		series.StartDate = &startDate.Time
	}
	if endDate.Valid {
		series.EndDate = &endDate.Time
	}
	if deletedAt.Valid {
		series.DeletedAt = &deletedAt.Time
	}
	if syncedAt.Valid {
		series.SyncedAt = &syncedAt.Time
	}

	return series, nil
}

// collectSeries drains rows into a slice.
func collectSeries(rows *sql.Rows) ([]*models.SeriesRecord, error) {
	var result []*models.SeriesRecord
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, shared.E(shared.KindLocalStorage, "scan series", err)
		}
		result = append(result, series)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.E(shared.KindLocalStorage, "scan series", err)
	}
	return result, nil
}

// timePtr converts an optional timestamp for binding; nil stays NULL.
func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// countWhere runs a COUNT(*) with the given predicate.
func countWhere(db *sql.DB, table, where string, args ...any) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, shared.E(shared.KindLocalStorage, "count "+table, err)
	}
	return count, nil
}
