// package remote defines interface Adapter for talking to the sync backend.
//
// The orchestrator depends only on Adapter; the HTTP implementation is the
// default but tests substitute in-memory fakes.
package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lecternhq/lectern/internal/models"
)

// Adapter is the transport boundary between the sync engine and the backend.
type Adapter interface {
	// PullSeries retrieves series rows changed on the server strictly after
	// since. A zero since requests the full table.
	PullSeries(ctx context.Context, userID string, since time.Time) ([]*models.SeriesRecord, error)

	// PullSermons retrieves sermon rows changed on the server strictly after
	// since. A zero since requests the full table.
	PullSermons(ctx context.Context, userID string, since time.Time) ([]*models.SermonRecord, error)

	// Push sends one batch of local changes for a table and returns a result
	// per item. Items are ordered oldest local edit first and the server is
	// expected to apply them idempotently.
	Push(ctx context.Context, table, userID string, items []PushItem) ([]PushResult, error)
}

// PushItem is one queued local change. Version is the row version captured
// when the batch was built; the ack only clears the row if it still matches.
type PushItem struct {
	ID        string          `json:"id"`
	Op        models.SyncOp   `json:"op"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Payload   json.RawMessage `json:"payload,omitempty"` // full record for upserts, empty for deletes
}

// PushResult is the server's verdict on one pushed item.
type PushResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
