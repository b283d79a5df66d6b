package analyzer

import (
	"sort"

	"custos/internal/catalog"
)

// Change describes how one principal differs between two snapshots.
type Change struct {
	PrincipalID string   `json:"principal_id"`
	Fields      []string `json:"fields"`
}

// SnapshotDiff is the differential between an earlier and a later
// snapshot, keyed by principal ID. A principal whose ID changed shows
// up as one removal plus one addition; identity is the ID, not the
// record contents.
type SnapshotDiff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []Change `json:"modified"`
	Unchanged []string `json:"unchanged"`
}

// Empty reports whether the two snapshots held identical principals.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Diff compares two snapshots. All result slices are sorted by
// principal ID so the output is deterministic.
func Diff(before, after catalog.Snapshot) SnapshotDiff {
	prev := make(map[string]catalog.Principal, len(before.Principals))
	for _, p := range before.Principals {
		prev[p.ID] = p
	}

	var diff SnapshotDiff
	seen := make(map[string]bool, len(after.Principals))
	for _, p := range after.Principals {
		seen[p.ID] = true
		old, ok := prev[p.ID]
		if !ok {
			diff.Added = append(diff.Added, p.ID)
			continue
		}
		fields := changedFields(old, p)
		if len(fields) == 0 {
			diff.Unchanged = append(diff.Unchanged, p.ID)
		} else {
			diff.Modified = append(diff.Modified, Change{PrincipalID: p.ID, Fields: fields})
		}
	}
	for _, p := range before.Principals {
		if !seen[p.ID] {
			diff.Removed = append(diff.Removed, p.ID)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Unchanged)
	sort.Slice(diff.Modified, func(i, j int) bool {
		return diff.Modified[i].PrincipalID < diff.Modified[j].PrincipalID
	})
	return diff
}

func changedFields(old, now catalog.Principal) []string {
	var fields []string
	if old.Owner != now.Owner {
		fields = append(fields, "owner")
	}
	if old.Purpose != now.Purpose {
		fields = append(fields, "purpose")
	}
	if old.Environment != now.Environment {
		fields = append(fields, "environment")
	}
	if !old.Policy.Equal(now.Policy) {
		fields = append(fields, "policy")
	}
	if old.Inactive != now.Inactive {
		fields = append(fields, "inactive")
	}
	return fields
}
