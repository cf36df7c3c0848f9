package repositories

import (
	"database/sql"
	"time"

	"github.com/lecternhq/lectern/internal/shared"
)

// WatermarkStore persists the per-table pull watermark: the highest remote
// updated_at fully applied locally. Watermarks only move forward; a pull that
// yields nothing newer leaves the stored value untouched.
type WatermarkStore struct {
	db *sql.DB
}

// NewWatermarkStore creates a new WatermarkStore with the given database connection
func NewWatermarkStore(db *sql.DB) *WatermarkStore {
	return &WatermarkStore{db: db}
}

// Get returns the stored watermark for a user and table. A table that has
// never been pulled returns the zero time, which makes the first pull a full
// pull.
func (w *WatermarkStore) Get(userID, table string) (time.Time, error) {
	var t time.Time
	err := w.db.QueryRow(
		"SELECT last_pulled_at FROM sync_state WHERE user_id = ? AND table_name = ?",
		userID, table,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, shared.E(shared.KindLocalStorage, "get watermark", err)
	}
	return t, nil
}

// Advance moves the watermark forward to t. A value at or behind the stored
// watermark is ignored so the watermark is never rewound.
func (w *WatermarkStore) Advance(userID, table string, t time.Time) error {
	current, err := w.Get(userID, table)
	if err != nil {
		return err
	}
	if !t.After(current) {
		return nil
	}

	query := `
		INSERT INTO sync_state (user_id, table_name, last_pulled_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, table_name) DO UPDATE SET last_pulled_at = excluded.last_pulled_at
	`
	if _, err := w.db.Exec(query, userID, table, t.UTC()); err != nil {
		return shared.E(shared.KindLocalStorage, "advance watermark", err)
	}
	return nil
}

// Clear removes all watermarks for a user, forcing the next sync to do a
// full pull of every table.
func (w *WatermarkStore) Clear(userID string) error {
	if _, err := w.db.Exec("DELETE FROM sync_state WHERE user_id = ?", userID); err != nil {
		return shared.E(shared.KindLocalStorage, "clear watermarks", err)
	}
	return nil
}
