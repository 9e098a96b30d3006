package sqlite

import "github.com/mesh-intelligence/entities/pkg/types"

// storedHead is the part of a stored row that the merge rule reads.
type storedHead struct {
	internalID int64
	label      *string
	state      types.EntityState
}

// mergeState decides the state of an entity saved over an existing row.
// An offline row takes the incoming state; a row the server has confirmed
// stays online whatever the incoming entity says.
func mergeState(existing, incoming types.EntityState) types.EntityState {
	if existing == types.StateOffline {
		return incoming
	}
	return types.StateOnline
}

// mergeEntity returns the row to write when incoming replaces existing.
// Everything comes from incoming except the state (see mergeState) and a
// missing label, which falls back to the stored one.
func mergeEntity(existing storedHead, incoming types.Entity) types.Entity {
	merged := incoming
	merged.State = mergeState(existing.state, incoming.State)
	if merged.Label == nil {
		merged.Label = existing.label
	}
	return merged
}
