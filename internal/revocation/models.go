package revocation

import "time"

// TargetStatus is the propagation state of one downstream system.
type TargetStatus string

const (
	TargetPending   TargetStatus = "PENDING"
	TargetConfirmed TargetStatus = "CONFIRMED"
	TargetFailed    TargetStatus = "FAILED"
)

// OverallStatus is derived from target states and the SLA clock at read
// time. It is never stored.
type OverallStatus string

const (
	StatusInProgress OverallStatus = "IN_PROGRESS"
	StatusCompleted  OverallStatus = "COMPLETED"
	StatusSLABreach  OverallStatus = "SLA_BREACHED"
)

// Target tracks propagation to one downstream system.
type Target struct {
	System      string       `json:"system"`
	Status      TargetStatus `json:"status"`
	ConfirmedAt *time.Time   `json:"confirmed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Record is one revocation request. The subject is blocked from the
// moment the record is created; propagation confirms downstream
// systems have caught up.
type Record struct {
	ID          string            `json:"id"`
	Subject     string            `json:"subject"`
	Reason      string            `json:"reason"`
	RequestedBy string            `json:"requested_by"`
	InitiatedAt time.Time         `json:"initiated_at"`
	SLADeadline time.Time         `json:"sla_deadline"`
	Targets     map[string]Target `json:"targets"`
}

// confirmedAt returns the instant the last target confirmed, and
// whether every target has confirmed.
func (r Record) confirmedAt() (time.Time, bool) {
	var last time.Time
	for _, t := range r.Targets {
		if t.Status != TargetConfirmed || t.ConfirmedAt == nil {
			return time.Time{}, false
		}
		if t.ConfirmedAt.After(last) {
			last = *t.ConfirmedAt
		}
	}
	return last, len(r.Targets) > 0
}

// StatusAt derives the overall status at the given instant.
func (r Record) StatusAt(now time.Time) OverallStatus {
	if completedAt, done := r.confirmedAt(); done {
		if completedAt.After(r.SLADeadline) {
			return StatusSLABreach
		}
		return StatusCompleted
	}
	if now.After(r.SLADeadline) {
		return StatusSLABreach
	}
	return StatusInProgress
}

// StatusReport is the tracking view returned to callers.
type StatusReport struct {
	ID             string        `json:"id"`
	Subject        string        `json:"subject"`
	Status         OverallStatus `json:"status"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	SLASeconds     float64       `json:"sla_seconds"`
	Targets        []Target      `json:"targets"`
}

// SLAReport summarizes completed revocations only. Revocations still in
// flight say nothing about how fast propagation finishes.
type SLAReport struct {
	Completed      int     `json:"completed"`
	WithinSLA      int     `json:"within_sla"`
	CompliancePct  float64 `json:"compliance_pct"`
	AvgLatencySecs float64 `json:"avg_latency_seconds"`
}
