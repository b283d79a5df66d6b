// Package evidence turns the audit log into reviewer-facing artifacts:
// verified correlation chains, windowed evidence packs, and decision
// aggregates.
package evidence

import (
	"context"
	"log/slog"
	"time"

	"custos/internal/audit"
	"custos/internal/integrity"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Log is the read side of the audit store.
type Log interface {
	ListByCorrelation(ctx context.Context, correlationID string) ([]audit.Event, error)
	List(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// VerifiedEvent is one chain link with its verification outcome.
type VerifiedEvent struct {
	audit.Event
	Valid bool `json:"valid"`
}

// ChainReport is the result of reconstructing one correlation chain.
// Corruption is reported, never repaired: the log is the record of what
// happened, including tampering.
type ChainReport struct {
	CorrelationID        string          `json:"correlation_id"`
	Events               []VerifiedEvent `json:"events"`
	IntegrityValid       bool            `json:"integrity_valid"`
	FirstInvalidSequence int             `json:"first_invalid_sequence,omitempty"`
}

// Builder reconstructs chains and assembles evidence packs.
type Builder struct {
	log    Log
	logger *slog.Logger
}

func NewBuilder(log Log, logger *slog.Logger) (*Builder, error) {
	if log == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit log is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{log: log, logger: logger}, nil
}

// Reconstruct verifies one correlation chain link by link. An event is
// valid when its stored previous hash matches the preceding event's
// integrity hash and its own hash recomputes from the payload. The
// first invalid event poisons everything after it: later hashes are
// anchored to a link that cannot be trusted.
func (b *Builder) Reconstruct(ctx context.Context, correlationID string) (ChainReport, error) {
	if correlationID == "" {
		return ChainReport{}, dErrors.New(dErrors.CodeValidation, "correlation_id is required")
	}
	events, err := b.log.ListByCorrelation(ctx, correlationID)
	if err != nil {
		return ChainReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading chain")
	}
	if len(events) == 0 {
		return ChainReport{}, dErrors.New(dErrors.CodeNotFound, "no chain for correlation "+correlationID)
	}

	report := ChainReport{
		CorrelationID:  correlationID,
		Events:         make([]VerifiedEvent, 0, len(events)),
		IntegrityValid: true,
	}
	expectedPrev := integrity.GenesisHash
	broken := false
	for _, event := range events {
		valid := !broken && event.PrevHash == expectedPrev
		if valid {
			digest, err := integrity.Digest(event.Payload(), event.PrevHash)
			if err != nil || digest != event.IntegrityHash {
				valid = false
			}
		}
		if !valid && !broken {
			broken = true
			report.IntegrityValid = false
			report.FirstInvalidSequence = event.Sequence
			b.logger.WarnContext(ctx, "chain integrity violation",
				slog.String("correlation_id", correlationID),
				slog.Int("sequence", event.Sequence))
		}
		report.Events = append(report.Events, VerifiedEvent{Event: event, Valid: valid})
		expectedPrev = event.IntegrityHash
	}
	return report, nil
}

// Pack is a windowed export of audit activity.
type Pack struct {
	GeneratedAt time.Time      `json:"generated_at"`
	WindowFrom  time.Time      `json:"window_from"`
	WindowTo    time.Time      `json:"window_to"`
	TotalEvents int            `json:"total_events"`
	ByDecision  map[string]int `json:"by_decision,omitempty"`
	BySubject   map[string]int `json:"by_subject,omitempty"`
	ByEventType map[string]int `json:"by_event_type,omitempty"`
	Events      []audit.Event  `json:"events"`
}

// GenerateEvidencePack assembles every event in the trailing window,
// with summary counts when includeMetrics is set. Read-only over the
// log.
func (b *Builder) GenerateEvidencePack(ctx context.Context, hoursBack int, includeMetrics bool) (Pack, error) {
	if hoursBack <= 0 {
		return Pack{}, dErrors.New(dErrors.CodeValidation, "hours_back must be positive")
	}
	now := requestcontext.Now(ctx)
	from := now.Add(-time.Duration(hoursBack) * time.Hour)

	events, err := b.log.List(ctx, audit.Filter{From: from, To: now})
	if err != nil {
		return Pack{}, dErrors.Wrap(err, dErrors.CodeInternal, "listing events")
	}

	pack := Pack{
		GeneratedAt: now,
		WindowFrom:  from,
		WindowTo:    now,
		TotalEvents: len(events),
		Events:      events,
	}
	if includeMetrics {
		pack.ByDecision = make(map[string]int)
		pack.BySubject = make(map[string]int)
		pack.ByEventType = make(map[string]int)
		for _, e := range events {
			if e.Decision != "" {
				pack.ByDecision[string(e.Decision)]++
			}
			pack.BySubject[e.Subject]++
			pack.ByEventType[string(e.EventType)]++
		}
	}
	return pack, nil
}

// Decisions returns audit events matching the filter, for the decision
// review surface.
func (b *Builder) Decisions(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	events, err := b.log.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing decisions")
	}
	return events, nil
}

// AggregateDecisions buckets matching events along one dimension. An
// unknown dimension is rejected before the log is consulted so the
// error does not depend on what happens to match the filter.
func (b *Builder) AggregateDecisions(ctx context.Context, filter audit.Filter, dimension string) (map[string]int, error) {
	keyOf, ok := dimensionKeys[dimension]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown aggregation dimension "+dimension)
	}

	events, err := b.log.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing decisions")
	}

	out := make(map[string]int)
	for _, e := range events {
		if key := keyOf(e); key != "" {
			out[key]++
		}
	}
	return out, nil
}

var dimensionKeys = map[string]func(audit.Event) string{
	"subject":    func(e audit.Event) string { return e.Subject },
	"decision":   func(e audit.Event) string { return string(e.Decision) },
	"event_type": func(e audit.Event) string { return string(e.EventType) },
	"resource":   func(e audit.Event) string { return e.Resource },
	"action":     func(e audit.Event) string { return e.Action },
}
