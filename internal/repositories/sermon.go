package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// SermonRepository implements models.Repository[*models.SermonRecord].
//
// Mirrors SeriesRepository with one addition: a sermon referencing a series
// must reference one owned by the same user, checked here where the series
// table is reachable.
type SermonRepository struct {
	db *sql.DB
}

// NewSermonRepository creates a new SermonRepository with the given database connection
func NewSermonRepository(db *sql.DB) *SermonRepository {
	return &SermonRepository{db: db}
}

// Upsert inserts or replaces a locally edited sermon. Existing rows are
// touched (dirty, op=upsert, version+1); new records keep the metadata set by
// models.NewSermon. The series ownership check and the write share one
// transaction.
func (r *SermonRepository) Upsert(sermon *models.SermonRecord) error {
	if err := sermon.Validate(); err != nil {
		return shared.E(shared.KindValidation, "upsert sermon", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "upsert sermon", err)
	}
	defer tx.Rollback()

	if sermon.SeriesID != "" {
		var exists bool
		err := tx.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM series WHERE id = ? AND user_id = ? AND deleted_at IS NULL)",
			sermon.SeriesID, sermon.UserID,
		).Scan(&exists)
		if err != nil {
			return shared.E(shared.KindLocalStorage, "upsert sermon", err)
		}
		if !exists {
			return shared.E(shared.KindValidation, "upsert sermon",
				fmt.Errorf("series %s not found for this user", sermon.SeriesID))
		}
	}

	var owner string
	err = tx.QueryRow("SELECT user_id FROM sermons WHERE id = ?", sermon.ID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		if sermon.Version == 0 {
			sermon.InitTimestamps()
		}
	case err != nil:
		return shared.E(shared.KindLocalStorage, "upsert sermon", err)
	case owner != sermon.UserID:
		return shared.E(shared.KindValidation, "upsert sermon", fmt.Errorf("sermon %s belongs to another user", sermon.ID))
	default:
		sermon.Touch()
	}

	if err := writeSermon(tx, sermon); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "upsert sermon", err)
	}
	return nil
}

// Get retrieves a sermon by ID regardless of soft-delete state.
func (r *SermonRepository) Get(userID, id string) (*models.SermonRecord, error) {
	query := sermonSelect + " WHERE id = ? AND user_id = ?"
	sermon, err := scanSermon(r.db.QueryRow(query, id, userID))
	if err == sql.ErrNoRows {
		return nil, shared.E(shared.KindLocalStorage, "get sermon", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "get sermon", err)
	}
	return sermon, nil
}

// SoftDelete marks a sermon deleted. The row stays in the table with
// op=delete and a bumped version until a successful push confirms the delete.
func (r *SermonRepository) SoftDelete(userID, id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE sermons
		SET deleted_at = ?, updated_at = ?, dirty = 1, op = 'delete', version = version + 1
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, now, id, userID)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "delete sermon", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "delete sermon", err)
	}
	if rows == 0 {
		return shared.E(shared.KindLocalStorage, "delete sermon", shared.ErrRecordNotFound)
	}
	return nil
}

// QueryActive retrieves non-deleted sermons for a user matching the given criteria.
func (r *SermonRepository) QueryActive(userID string, criteria map[string]any) ([]*models.SermonRecord, error) {
	query := sermonSelect + " WHERE user_id = ? AND deleted_at IS NULL"
	args := []any{userID}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if visibility, ok := criteria["visibility"].(string); ok && visibility != "" {
		query += " AND visibility = ?"
		args = append(args, visibility)
	}

	if seriesID, ok := criteria["series_id"].(string); ok && seriesID != "" {
		query += " AND series_id = ?"
		args = append(args, seriesID)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "list sermons", err)
	}
	defer rows.Close()

	return collectSermons(rows)
}

// QueryDirty retrieves up to limit dirty sermons ordered by updated_at
// ascending, which fixes the push order (oldest change first).
func (r *SermonRepository) QueryDirty(userID string, limit int) ([]*models.SermonRecord, error) {
	query := sermonSelect + " WHERE user_id = ? AND dirty = 1 ORDER BY updated_at ASC LIMIT ?"

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "query dirty sermons", err)
	}
	defer rows.Close()

	return collectSermons(rows)
}

// ApplyRemote bulk-replaces sermon rows with authoritative remote records.
// Rows written this way are clean: dirty stays unset and synced_at is stamped.
func (r *SermonRepository) ApplyRemote(records []*models.SermonRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return shared.E(shared.KindLocalStorage, "apply remote sermons", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, sermon := range records {
		sermon.Dirty = false
		sermon.Op = models.OpUpsert
		sermon.SyncedAt = &now
		if err := writeSermon(tx, sermon); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.E(shared.KindLocalStorage, "apply remote sermons", err)
	}
	return nil
}

// MarkSynced clears the dirty flag and stamps synced_at, but only if the row
// version still equals the value captured when the push batch was built.
// Returns false when the row moved underneath the push and stays dirty.
func (r *SermonRepository) MarkSynced(id string, version int64, syncedAt time.Time) (bool, error) {
	query := `
		UPDATE sermons
		SET dirty = 0, synced_at = ?
		WHERE id = ? AND version = ? AND dirty = 1
	`

	result, err := r.db.Exec(query, syncedAt.UTC(), id, version)
	if err != nil {
		return false, shared.E(shared.KindLocalStorage, "ack sermon", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, shared.E(shared.KindLocalStorage, "ack sermon", err)
	}
	return rows > 0, nil
}

// CountActive returns the number of non-deleted sermons for a user.
func (r *SermonRepository) CountActive(userID string) (int, error) {
	return countWhere(r.db, "sermons", "user_id = ? AND deleted_at IS NULL", userID)
}

// CountDirty returns the number of sermons awaiting push for a user.
func (r *SermonRepository) CountDirty(userID string) (int, error) {
	return countWhere(r.db, "sermons", "user_id = ? AND dirty = 1", userID)
}

const sermonSelect = `
	SELECT id, user_id, title, content, outline, scripture, tags, status, visibility, date, notes, series_id,
	       created_at, updated_at, deleted_at, synced_at, dirty, op, version
	FROM sermons`

// writeSermon replaces the full row inside the caller's transaction.
func writeSermon(tx *sql.Tx, sermon *models.SermonRecord) error {
	tags, err := marshalTags(sermon.Tags)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "write sermon", err)
	}

	var outline any
	if len(sermon.Outline) > 0 {
		outline = string(sermon.Outline)
	}

	var seriesID any
	if sermon.SeriesID != "" {
		seriesID = sermon.SeriesID
	}

	query := `
		INSERT OR REPLACE INTO sermons
			(id, user_id, title, content, outline, scripture, tags, status, visibility, date, notes, series_id,
			 created_at, updated_at, deleted_at, synced_at, dirty, op, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		sermon.ID,
		sermon.UserID,
		sermon.Title,
		sermon.Content,
		outline,
		sermon.Scripture,
		tags,
		string(sermon.Status),
		string(sermon.Visibility),
		timePtr(sermon.Date),
		sermon.Notes,
		seriesID,
		sermon.CreatedAt,
		sermon.UpdatedAt,
		timePtr(sermon.DeletedAt),
		timePtr(sermon.SyncedAt),
		sermon.Dirty,
		string(sermon.Op),
		sermon.Version,
	)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "write sermon", err)
	}
	return nil
}

// scanSermon scans a single row into a [models.SermonRecord]
func scanSermon(row scanner) (*models.SermonRecord, error) {
	var (
		id         string
		userID     string
		title      string
		content    string
		outline    sql.NullString
		scripture  string
		tagsRaw    string
		status     string
		visibility string
		date       sql.NullTime
		notes      string
		seriesID   sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
		syncedAt   sql.NullTime
		dirty      bool
		op         string
		version    int64
	)

	err := row.Scan(&id, &userID, &title, &content, &outline, &scripture, &tagsRaw, &status, &visibility,
		&date, &notes, &seriesID, &createdAt, &updatedAt, &deletedAt, &syncedAt, &dirty, &op, &version)
	if err != nil {
		return nil, err
	}

	tags, err := unmarshalTags(tagsRaw)
	if err != nil {
		return nil, err
	}

	sermon := &models.SermonRecord{
		BaseEntity: models.BaseEntity{ID: id, UserID: userID},
		SyncMeta: models.SyncMeta{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
			Dirty:     dirty,
			Op:        models.SyncOp(op),
			Version:   version,
		},
		Title:      title,
		Content:    content,
		Scripture:  scripture,
		Tags:       tags,
		Status:     models.SermonStatus(status),
		Visibility: models.Visibility(visibility),
		Notes:      notes,
	}
	if outline.Valid && outline.String != "" {
		sermon.Outline = []byte(outline.String)
	}
	if seriesID.Valid {
		sermon.SeriesID = seriesID.String
	}
	if date.Valid {
		sermon.Date = &date.Time
	}
	if deletedAt.Valid {
		sermon.DeletedAt = &deletedAt.Time
	}
	if syncedAt.Valid {
		sermon.SyncedAt = &syncedAt.Time
	}

	return sermon, nil
}

// collectSermons drains rows into a slice.
func collectSermons(rows *sql.Rows) ([]*models.SermonRecord, error) {
	var result []*models.SermonRecord
	for rows.Next() {
		sermon, err := scanSermon(rows)
		if err != nil {
			return nil, shared.E(shared.KindLocalStorage, "scan sermon", err)
		}
		result = append(result, sermon)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.E(shared.KindLocalStorage, "scan sermon", err)
	}
	return result, nil
}
