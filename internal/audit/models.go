package audit

import "time"

// Decision is the effect recorded on a decision event.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// EventType labels what happened. Types are part of the evidence
// contract, so additions are fine but renames are not.
type EventType string

const (
	// Authorization engine events
	EventAuthorizationDecision EventType = "authorization_decision"
	EventAuthorizationGranted  EventType = "authorization_granted"
	EventAuthorizationRevoked  EventType = "authorization_revoked"
	EventAuthorizationDenied   EventType = "authorization_denied"
	EventToolDeprecated        EventType = "tool_deprecated"

	// Integration registry events
	EventIntegrationRequested EventType = "integration_requested"
	EventIntegrationApproved  EventType = "integration_approved"
	EventIntegrationDenied    EventType = "integration_denied"

	// Revocation orchestrator events
	EventRevocationRequested    EventType = "revocation_requested"
	EventRevocationPropagated   EventType = "revocation_propagated"
	EventRevocationAccessDenied EventType = "revocation_access_denied"
)

// Event is one link in a correlation chain. Events are append-only and
// never mutated; IntegrityHash covers the payload fields plus the
// previous event's stored hash, so any later edit or reorder breaks the
// chain from that point on.
type Event struct {
	CorrelationID string
	Sequence      int
	EventType     EventType
	Subject       string
	Action        string
	Resource      string
	Decision      Decision
	Reason        string
	Timestamp     time.Time
	PrevHash      string
	IntegrityHash string
}

// payload is the hashable projection of an Event. All fields are scalar
// with fixed JSON names so canonical serialization is deterministic; the
// hash fields themselves are excluded.
type payload struct {
	CorrelationID string `json:"correlation_id"`
	Sequence      int    `json:"sequence"`
	EventType     string `json:"event_type"`
	Subject       string `json:"subject"`
	Action        string `json:"action"`
	Resource      string `json:"resource"`
	Decision      string `json:"decision"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

// Payload returns the hashable projection of the event.
func (e Event) Payload() any {
	return payload{
		CorrelationID: e.CorrelationID,
		Sequence:      e.Sequence,
		EventType:     string(e.EventType),
		Subject:       e.Subject,
		Action:        e.Action,
		Resource:      e.Resource,
		Decision:      string(e.Decision),
		Reason:        e.Reason,
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Filter narrows decision/event listings. Zero values mean "any".
type Filter struct {
	CorrelationID string
	Subject       string
	Decision      Decision
	Resource      string
	Action        string
	EventType     EventType
	From          time.Time
	To            time.Time
}

// Matches reports whether the event passes every set filter field.
func (f Filter) Matches(e Event) bool {
	if f.CorrelationID != "" && e.CorrelationID != f.CorrelationID {
		return false
	}
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}
