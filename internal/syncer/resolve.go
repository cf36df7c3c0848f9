package syncer

import (
	"github.com/lecternhq/lectern/internal/models"
)

// resolve decides which side of a collision survives. Whole-record
// last-write-wins on updated_at: the local copy survives only when its edit
// is strictly newer. An exact tie goes to the remote copy, which keeps every
// client that saw the tie convergent on the server's version.
func resolve[T models.Model](local, remote T) models.ResolvedWith {
	if local.Meta().UpdatedAt.After(remote.Meta().UpdatedAt) {
		return models.ResolvedLocal
	}
	return models.ResolvedRemote
}

// conflictEntry builds the diagnostic record for one collision. Exactly one
// entry is written per collision, whichever side wins.
func conflictEntry[T models.Model](table string, local, remote T, winner models.ResolvedWith) *models.ConflictRecord {
	return &models.ConflictRecord{
		UserID:         local.Owner(),
		TableName:      table,
		RecordID:       local.Key(),
		LocalUpdatedAt: local.Meta().UpdatedAt,
		RemoteUpdated:  remote.Meta().UpdatedAt,
		ResolvedWith:   winner,
	}
}
