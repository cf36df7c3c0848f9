package repositories

import (
	"database/sql"
	"time"

	"github.com/lecternhq/lectern/internal/shared"
)

// AuthStateRepository tracks whether cached credentials exist for a user.
// Only presence is stored; credential material itself never touches the
// local store.
type AuthStateRepository struct {
	db *sql.DB
}

// NewAuthStateRepository creates a new AuthStateRepository with the given database connection
func NewAuthStateRepository(db *sql.DB) *AuthStateRepository {
	return &AuthStateRepository{db: db}
}

// Set records that credentials from the given provider are cached.
func (r *AuthStateRepository) Set(userID, provider string) error {
	query := `
		INSERT INTO auth_state (user_id, provider, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET provider = excluded.provider, cached_at = excluded.cached_at
	`
	if _, err := r.db.Exec(query, userID, provider, time.Now().UTC()); err != nil {
		return shared.E(shared.KindLocalStorage, "set auth state", err)
	}
	return nil
}

// HasCached reports whether cached credentials exist for the user.
func (r *AuthStateRepository) HasCached(userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM auth_state WHERE user_id = ?)", userID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, shared.E(shared.KindLocalStorage, "check auth state", err)
	}
	return exists, nil
}

// Clear removes the cached-credential marker for a user.
func (r *AuthStateRepository) Clear(userID string) error {
	if _, err := r.db.Exec("DELETE FROM auth_state WHERE user_id = ?", userID); err != nil {
		return shared.E(shared.KindLocalStorage, "clear auth state", err)
	}
	return nil
}
