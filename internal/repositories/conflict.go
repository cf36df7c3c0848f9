package repositories

import (
	"database/sql"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// ConflictRepository stores conflict log entries written by the resolver.
// Entries are diagnostics, not user data; they are never synced.
type ConflictRepository struct {
	db *sql.DB
}

// NewConflictRepository creates a new ConflictRepository with the given database connection
func NewConflictRepository(db *sql.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Record writes one conflict entry. The resolver calls this exactly once per
// collision, whichever side won.
func (r *ConflictRepository) Record(c *models.ConflictRecord) error {
	if c.ID == "" {
		c.ID = shared.GenerateID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conflicts (id, user_id, table_name, record_id, local_updated_at, remote_updated_at, resolved_with, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		c.ID,
		c.UserID,
		c.TableName,
		c.RecordID,
		c.LocalUpdatedAt.UTC(),
		c.RemoteUpdated.UTC(),
		string(c.ResolvedWith),
		c.CreatedAt,
	)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "record conflict", err)
	}
	return nil
}

// List retrieves all conflict entries for a user, newest first.
func (r *ConflictRepository) List(userID string) ([]*models.ConflictRecord, error) {
	query := `
		SELECT id, user_id, table_name, record_id, local_updated_at, remote_updated_at, resolved_with, created_at
		FROM conflicts
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "list conflicts", err)
	}
	defer rows.Close()

	var result []*models.ConflictRecord
	for rows.Next() {
		var (
			c            models.ConflictRecord
			resolvedWith string
		)
		err := rows.Scan(&c.ID, &c.UserID, &c.TableName, &c.RecordID, &c.LocalUpdatedAt, &c.RemoteUpdated, &resolvedWith, &c.CreatedAt)
		if err != nil {
			return nil, shared.E(shared.KindLocalStorage, "scan conflict", err)
		}
		c.ResolvedWith = models.ResolvedWith(resolvedWith)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.E(shared.KindLocalStorage, "scan conflict", err)
	}

	return result, nil
}

// Count returns the number of logged conflicts for a user.
func (r *ConflictRepository) Count(userID string) (int, error) {
	return countWhere(r.db, "conflicts", "user_id = ?", userID)
}

// Clear removes all conflict entries for a user.
func (r *ConflictRepository) Clear(userID string) error {
	if _, err := r.db.Exec("DELETE FROM conflicts WHERE user_id = ?", userID); err != nil {
		return shared.E(shared.KindLocalStorage, "clear conflicts", err)
	}
	return nil
}
