package domain

// SyncUnit is a flattened, name-encoded representation of a Float project or
// phase used for diffing against the Toggl mirror. DisplayName embeds
// CanonicalID in bracket form ("Name [id]" or "Project - Phase [id]").
type SyncUnit struct {
	CanonicalID int64
	DisplayName string
	ColorHex    string // raw Float hex without '#', empty when unknown
	Active      bool
}
