// Binary lectern is a local-first sermon series manager.
//
// All content lives in a local SQLite database and syncs with the Lectern
// backend on demand. Commands are grouped per concern: series and sermon for
// content, sync for the push/pull pass, status and reset for inspecting and
// repairing the store, export for sharing, and tui for the interactive view.
package main

import (
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/shared"
)

// dateLayout is the calendar format accepted by --start, --end, and --date.
const dateLayout = "2006-01-02"

func parseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s must be formatted as %s", shared.ErrInvalidFlag, flag, dateLayout)
	}
	return &t, nil
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
