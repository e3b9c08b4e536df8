package usecase

import (
	"toggl-float-bridge/internal/codec"
	"toggl-float-bridge/internal/domain"
)

// Migration repoints one time entry at a different mirror project.
type Migration struct {
	EntryID   int64
	ProjectID int64
}

// PlanMigrations finds entries whose project reference is stale: the mirror
// they point at decodes to a canonical id, and a different mirror now
// carries that id in bracket form. The decoded id is the last one in the
// name, so phase ids take precedence over the project id preceding them.
// Entries without a project, or already on the current mirror, are skipped.
func PlanMigrations(entries []domain.TimeEntry, mirrors []domain.MirrorProject) []Migration {
	byID := make(map[int64]domain.MirrorProject, len(mirrors))
	for _, m := range mirrors {
		byID[m.ID] = m
	}

	var out []Migration
	for _, e := range entries {
		if e.ProjectID == nil {
			continue
		}
		current, ok := byID[*e.ProjectID]
		if !ok {
			continue
		}
		preferred, ok := codec.Decode(current.Name)
		if !ok {
			continue
		}
		target, ok := findByCanonicalID(mirrors, preferred)
		if !ok || target.ID == *e.ProjectID {
			continue
		}
		out = append(out, Migration{EntryID: e.ID, ProjectID: target.ID})
	}
	return out
}

func findByCanonicalID(mirrors []domain.MirrorProject, id int64) (domain.MirrorProject, bool) {
	for _, m := range mirrors {
		if codec.Contains(m.Name, id) {
			return m, true
		}
	}
	return domain.MirrorProject{}, false
}
