// Package diff computes the mutations needed to converge the Toggl mirror
// onto the Float project/phase taxonomy.
package diff

import (
	"toggl-float-bridge/internal/codec"
	"toggl-float-bridge/internal/domain"
)

// Update pairs a mirror project id with the sync unit it must be rewritten to.
type Update struct {
	MirrorID int64
	Unit     domain.SyncUnit
}

// Result holds the three disjoint mutation sets. Creates preserve the source
// list order; deletes are independent operations with no ordering.
type Result struct {
	Create []domain.SyncUnit
	Update []Update
	Delete []domain.MirrorProject
}

// Taxonomy diffs the Float-derived sync units against the Toggl mirror list.
// A mirror is linked to a unit when the id decoded from its name equals the
// unit's canonical id. Mirrors with a decodable id but no unit at all are
// stale and scheduled for deletion; mirrors without any decodable id were
// never synced and are left alone.
func Taxonomy(units []domain.SyncUnit, mirrors []domain.MirrorProject) Result {
	byID := make(map[int64]domain.MirrorProject, len(mirrors))
	for _, m := range mirrors {
		id, ok := codec.Decode(m.Name)
		if !ok {
			continue
		}
		if _, dup := byID[id]; !dup {
			byID[id] = m
		}
	}

	unitIDs := make(map[int64]struct{}, len(units))
	var res Result
	for _, u := range units {
		unitIDs[u.CanonicalID] = struct{}{}
		mirror, linked := byID[u.CanonicalID]
		switch {
		case !linked:
			if u.Active {
				res.Create = append(res.Create, u)
			}
		case mirror.Name != u.DisplayName || mirror.Active != u.Active:
			res.Update = append(res.Update, Update{MirrorID: mirror.ID, Unit: u})
		}
	}

	for _, m := range mirrors {
		id, ok := codec.Decode(m.Name)
		if !ok {
			continue
		}
		if _, exists := unitIDs[id]; !exists {
			res.Delete = append(res.Delete, m)
		}
	}
	return res
}

// Flatten turns the Float project/phase lists into the flat sync unit list,
// each project followed by its phases. Phases carry their own color and
// active flag.
func Flatten(projects []domain.FloatProject, phases []domain.FloatPhase) []domain.SyncUnit {
	byProject := make(map[int64][]domain.FloatPhase)
	for _, ph := range phases {
		byProject[ph.ProjectID] = append(byProject[ph.ProjectID], ph)
	}

	var units []domain.SyncUnit
	for _, p := range projects {
		units = append(units, domain.SyncUnit{
			CanonicalID: p.ID,
			DisplayName: codec.Encode(p.Name, p.ID),
			ColorHex:    p.Color,
			Active:      p.Active,
		})
		for _, ph := range byProject[p.ID] {
			units = append(units, domain.SyncUnit{
				CanonicalID: ph.ID,
				DisplayName: codec.EncodePhase(p.Name, ph.Name, ph.ID),
				ColorHex:    ph.Color,
				Active:      ph.Active,
			})
		}
	}
	return units
}

// MissingTags returns the Float task names not yet present as Toggl tags.
// Comparison is case-sensitive; duplicates and empty names are dropped.
func MissingTags(taskNames []string, tags []domain.Tag) []string {
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t.Name] = struct{}{}
	}
	var missing []string
	for _, name := range taskNames {
		if name == "" {
			continue
		}
		if _, ok := have[name]; ok {
			continue
		}
		have[name] = struct{}{}
		missing = append(missing, name)
	}
	return missing
}
