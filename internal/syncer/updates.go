package syncer

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Sync phase
	Table   string // Table being synced, empty for run-level events
	Count   int    // Records handled so far in this phase
	Message string // Human-readable message for display
}

// Sync phase enumeration
type Phase int

const (
	PullPhase Phase = iota
	ResolvePhase
	PushPhase
	DonePhase
)

func (p Phase) String() string {
	switch p {
	case PullPhase:
		return "pull"
	case ResolvePhase:
		return "resolve"
	case PushPhase:
		return "push"
	case DonePhase:
		return "done"
	default:
		return ""
	}
}

func pullingUpdate(table string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PullPhase,
		Table:   table,
		Message: fmt.Sprintf("Pulling %s from server...", table),
	}
}

func pulledUpdate(table string, applied, conflicts int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PullPhase,
		Table:   table,
		Count:   applied,
		Message: fmt.Sprintf("Applied %d %s (%d conflicts)", applied, table, conflicts),
	}
}

func resolvedUpdate(table, recordID string, winner string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePhase,
		Table:   table,
		Message: fmt.Sprintf("Conflict on %s %s resolved with %s copy", table, recordID, winner),
	}
}

func pushingUpdate(table string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushPhase,
		Table:   table,
		Count:   count,
		Message: fmt.Sprintf("Pushing %d %s...", count, table),
	}
}

func doneUpdate(result *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DonePhase,
		Count:   result.Pulled + result.Pushed,
		Message: fmt.Sprintf("Sync complete: %d pulled, %d pushed, %d conflicts", result.Pulled, result.Pushed, result.Conflicts),
	}
}
