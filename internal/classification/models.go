package classification

import "time"

// Tier is a tool sensitivity classification. Higher tiers gate access on
// a time-bounded approval.
type Tier string

const (
	TierStandard   Tier = "STANDARD"
	TierSensitive  Tier = "SENSITIVE"
	TierRestricted Tier = "RESTRICTED"
)

// Classification describes one tool's sensitivity posture.
type Classification struct {
	ToolID           string `yaml:"tool_id"`
	Tier             Tier   `yaml:"tier"`
	RequiresApproval bool   `yaml:"requires_approval"`
	ApprovalTTLDays  int    `yaml:"approval_ttl_days"`
}

// ApprovalRecord grants time-bounded access to a classified tool.
// Expiry is a computed predicate, never a state transition: records are
// kept as-is and evaluated against the clock at every check, so there is
// no window where a background sweep races an "is valid" read.
type ApprovalRecord struct {
	ToolID    string
	Approver  string
	GrantedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the approval covers the given instant.
func (a ApprovalRecord) IsActive(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}
