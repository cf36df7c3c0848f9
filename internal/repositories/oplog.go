package repositories

import (
	"database/sql"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// OperationLog stores one entry per pull or push phase of a sync run so
// failures can be diagnosed after the fact.
type OperationLog struct {
	db *sql.DB
}

// NewOperationLog creates a new OperationLog with the given database connection
func NewOperationLog(db *sql.DB) *OperationLog {
	return &OperationLog{db: db}
}

// Record writes one operation entry.
func (l *OperationLog) Record(op *models.SyncOperation) error {
	if op.ID == "" {
		op.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO sync_operations (id, user_id, table_name, direction, record_count, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(query,
		op.ID,
		op.UserID,
		op.TableName,
		string(op.Direction),
		op.RecordCount,
		op.ErrorText,
		op.StartedAt.UTC(),
		op.FinishedAt.UTC(),
	)
	if err != nil {
		return shared.E(shared.KindLocalStorage, "record sync operation", err)
	}
	return nil
}

// Recent retrieves up to limit operation entries for a user, newest first.
func (l *OperationLog) Recent(userID string, limit int) ([]*models.SyncOperation, error) {
	query := `
		SELECT id, user_id, table_name, direction, record_count, error, started_at, finished_at
		FROM sync_operations
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := l.db.Query(query, userID, limit)
	if err != nil {
		return nil, shared.E(shared.KindLocalStorage, "list sync operations", err)
	}
	defer rows.Close()

	var result []*models.SyncOperation
	for rows.Next() {
		var (
			op        models.SyncOperation
			direction string
		)
		err := rows.Scan(&op.ID, &op.UserID, &op.TableName, &direction, &op.RecordCount, &op.ErrorText, &op.StartedAt, &op.FinishedAt)
		if err != nil {
			return nil, shared.E(shared.KindLocalStorage, "scan sync operation", err)
		}
		op.Direction = models.SyncDirection(direction)
		result = append(result, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.E(shared.KindLocalStorage, "scan sync operation", err)
	}

	return result, nil
}

// Clear removes all operation entries for a user.
func (l *OperationLog) Clear(userID string) error {
	if _, err := l.db.Exec("DELETE FROM sync_operations WHERE user_id = ?", userID); err != nil {
		return shared.E(shared.KindLocalStorage, "clear sync operations", err)
	}
	return nil
}
