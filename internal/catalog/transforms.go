package catalog

import "time"

// FlagInactive returns a copy of the snapshot with inactivity
// recomputed against the given threshold and instant. The input is not
// modified; reviewers can re-evaluate an archived snapshot under a
// different policy.
func FlagInactive(snap Snapshot, threshold time.Duration, now time.Time) Snapshot {
	out := snap
	out.Principals = make([]Principal, len(snap.Principals))
	for i, p := range snap.Principals {
		p.Inactive = isInactive(p.LastUsed, threshold, now)
		out.Principals[i] = p
	}
	return out
}

// DetectOrphans returns the principals with no assigned owner. A
// stated purpose does not rescue an ownerless principal; nobody is
// accountable for it either way.
func DetectOrphans(snap Snapshot) []Principal {
	var orphans []Principal
	for _, p := range snap.Principals {
		if p.Owner == OwnerUnassigned {
			orphans = append(orphans, p)
		}
	}
	return orphans
}
