package integration

import "time"

// Status is the lifecycle state of an integration request. REQUESTED
// moves to APPROVED or DENIED exactly once; EXPIRED is derived from the
// approval window at read time and never stored.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusApproved  Status = "APPROVED"
	StatusDenied    Status = "DENIED"
	StatusExpired   Status = "EXPIRED"
)

// Request is one third-party integration approval request.
type Request struct {
	ID          string     `json:"id"`
	SystemName  string     `json:"system_name"`
	Requester   string     `json:"requester"`
	Scopes      []string   `json:"scopes,omitempty"`
	Purpose     string     `json:"purpose"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	Approver    string     `json:"approver,omitempty"`
	ExpiryDays  int        `json:"expiry_days,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// ExpiresAt returns the end of the approval window. Zero when the
// request is not approved.
func (r Request) ExpiresAt() time.Time {
	if r.Status != StatusApproved || r.DecidedAt == nil {
		return time.Time{}
	}
	return r.DecidedAt.AddDate(0, 0, r.ExpiryDays)
}

// IsAllowed reports whether the integration may be used at the given
// instant. An approval with a zero-day window is never usable.
func (r Request) IsAllowed(now time.Time) bool {
	if r.Status != StatusApproved || r.DecidedAt == nil {
		return false
	}
	return now.Before(r.ExpiresAt())
}

// EffectiveStatus resolves the stored status against the clock:
// approvals past their window read as EXPIRED.
func (r Request) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusApproved && !r.IsAllowed(now) {
		return StatusExpired
	}
	return r.Status
}
