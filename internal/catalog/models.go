package catalog

import "time"

// OwnerUnassigned is the fallback owner recorded for principals missing
// an Owner tag. Keeping an explicit marker instead of an empty string
// makes orphan reports unambiguous downstream.
const OwnerUnassigned = "UNASSIGNED"

// Kind distinguishes principal categories in the inventory.
type Kind string

const (
	KindHuman   Kind = "human"
	KindService Kind = "service"
	KindAgent   Kind = "agent"
)

// RiskRating is the derived risk bucket for a principal.
type RiskRating string

const (
	RiskLow    RiskRating = "LOW"
	RiskMedium RiskRating = "MEDIUM"
	RiskHigh   RiskRating = "HIGH"
)

// PolicySummary condenses a principal's attached policies into the
// fields the analyzer scores on.
type PolicySummary struct {
	Actions           []string
	WildcardActions   int
	WildcardResources int
}

// Equal compares summaries field by field; used by snapshot diffing.
func (p PolicySummary) Equal(other PolicySummary) bool {
	if p.WildcardActions != other.WildcardActions || p.WildcardResources != other.WildcardResources {
		return false
	}
	if len(p.Actions) != len(other.Actions) {
		return false
	}
	for i := range p.Actions {
		if p.Actions[i] != other.Actions[i] {
			return false
		}
	}
	return true
}

// Principal is one catalog entry. Principals are immutable once placed
// in a snapshot; re-aggregation produces new values rather than
// mutating in place.
type Principal struct {
	ID          string
	Name        string
	Kind        Kind
	Environment string
	Owner       string
	Purpose     string
	Policy      PolicySummary
	// LastUsed is nil when the source has no activity record. Absent
	// activity is treated as maximally inactive, never recent.
	LastUsed *time.Time
	Inactive bool
	Orphan   bool
	Score    int
	Risk     RiskRating
}

// Snapshot is a point-in-time inventory. Append-only archive semantics:
// a snapshot is never mutated after creation, so concurrent readers
// never observe partial state.
type Snapshot struct {
	CapturedAt   time.Time
	Environments []string
	Principals   []Principal
}

// Find returns the principal with the given ID, if present.
func (s Snapshot) Find(id string) (Principal, bool) {
	for _, p := range s.Principals {
		if p.ID == id {
			return p, true
		}
	}
	return Principal{}, false
}

// RawPrincipal is what the external principal source returns: an
// IAM-shaped record before enrichment.
type RawPrincipal struct {
	ID           string
	Name         string
	Kind         Kind
	Environment  string
	Tags         map[string]string
	Actions      []string
	Wildcards    int
	ResourceWild int
	LastActivity *time.Time
}
