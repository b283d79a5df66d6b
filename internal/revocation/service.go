package revocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"custos/internal/audit"
	"custos/internal/revocation/metrics"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Service coordinates revocation of a subject's access across
// downstream systems and tracks propagation against an SLA.
type Service struct {
	store     Store
	blocklist Blocklist
	recorder  *audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	sla       time.Duration

	mu          sync.Mutex
	recordLocks map[string]*sync.Mutex
}

func NewService(store Store, blocklist Blocklist, recorder *audit.Recorder, m *metrics.Metrics, sla time.Duration, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "record store is required")
	}
	if blocklist == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "blocklist is required")
	}
	if recorder == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit recorder is required")
	}
	if sla <= 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "sla must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		blocklist:   blocklist,
		recorder:    recorder,
		metrics:     m,
		logger:      logger,
		sla:         sla,
		recordLocks: make(map[string]*sync.Mutex),
	}, nil
}

// Initiate starts a revocation. The subject is added to the blocklist
// before the record is saved: enforcement must deny from this instant
// even if propagation tracking later fails.
func (s *Service) Initiate(ctx context.Context, subject, reason, requestedBy string, targets []string) (Record, error) {
	if subject == "" {
		return Record{}, dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if len(targets) == 0 {
		return Record{}, dErrors.New(dErrors.CodeValidation, "at least one target system is required")
	}
	for _, system := range targets {
		if system == "" {
			return Record{}, dErrors.New(dErrors.CodeValidation, "target systems must be non-empty")
		}
	}
	now := requestcontext.Now(ctx)

	if err := s.blocklist.Block(ctx, subject); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "blocking subject")
	}

	record := Record{
		ID:          uuid.NewString(),
		Subject:     subject,
		Reason:      reason,
		RequestedBy: requestedBy,
		InitiatedAt: now,
		SLADeadline: now.Add(s.sla),
		Targets:     make(map[string]Target, len(targets)),
	}
	for _, system := range targets {
		record.Targets[system] = Target{System: system, Status: TargetPending}
	}
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving revocation record")
	}

	s.record(ctx, audit.EventRevocationRequested, subject, "", audit.DecisionAllow,
		fmt.Sprintf("revocation initiated across %d systems", len(targets)))
	s.logger.InfoContext(ctx, "revocation initiated",
		slog.String("revocation_id", record.ID),
		slog.String("subject", subject),
		slog.Int("targets", len(targets)))
	return record, nil
}

// MarkPropagated confirms one target system. Confirming an already
// confirmed target is a no-op, not an error.
func (s *Service) MarkPropagated(ctx context.Context, id, system string) (Record, error) {
	now := requestcontext.Now(ctx)

	lock := s.recordLock(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	target, ok := record.Targets[system]
	if !ok {
		return Record{}, dErrors.Newf(dErrors.CodeNotFound, "revocation %s has no target %s", id, system)
	}
	if target.Status == TargetConfirmed {
		return record, nil
	}

	target.Status = TargetConfirmed
	target.ConfirmedAt = &now
	target.Error = ""
	record.Targets[system] = target
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving propagation")
	}
	s.metrics.IncrementPropagation("confirmed")

	if completedAt, done := record.confirmedAt(); done {
		latency := completedAt.Sub(record.InitiatedAt)
		slaMet := !completedAt.After(record.SLADeadline)
		s.metrics.ObserveCompletion(latency)
		s.record(ctx, audit.EventRevocationPropagated, record.Subject, system, audit.DecisionAllow,
			fmt.Sprintf("revocation completed in %.1fs, sla_met=%t", latency.Seconds(), slaMet))
	} else {
		s.record(ctx, audit.EventRevocationPropagated, record.Subject, system, audit.DecisionAllow, "target confirmed")
	}
	return record, nil
}

// MarkFailed records a propagation failure for one target. Tracking
// continues for the remaining targets.
func (s *Service) MarkFailed(ctx context.Context, id, system, cause string) (Record, error) {
	lock := s.recordLock(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	target, ok := record.Targets[system]
	if !ok {
		return Record{}, dErrors.Newf(dErrors.CodeNotFound, "revocation %s has no target %s", id, system)
	}
	if target.Status == TargetConfirmed {
		return record, nil
	}

	target.Status = TargetFailed
	target.Error = cause
	record.Targets[system] = target
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving failure")
	}
	s.metrics.IncrementPropagation("failed")

	s.logger.WarnContext(ctx, "revocation propagation failed",
		slog.String("revocation_id", id),
		slog.String("system", system),
		slog.String("cause", cause))
	return record, nil
}

// TrackStatus derives the current state of a revocation.
func (s *Service) TrackStatus(ctx context.Context, id string) (StatusReport, error) {
	record, err := s.get(ctx, id)
	if err != nil {
		return StatusReport{}, err
	}
	now := requestcontext.Now(ctx)

	elapsed := now.Sub(record.InitiatedAt)
	if completedAt, done := record.confirmedAt(); done {
		elapsed = completedAt.Sub(record.InitiatedAt)
	}

	targets := make([]Target, 0, len(record.Targets))
	for _, t := range record.Targets {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].System < targets[j].System })

	return StatusReport{
		ID:             record.ID,
		Subject:        record.Subject,
		Status:         record.StatusAt(now),
		ElapsedSeconds: elapsed.Seconds(),
		SLASeconds:     s.sla.Seconds(),
		Targets:        targets,
	}, nil
}

// ListActive returns revocations that have not fully propagated yet,
// oldest first. SLA-breached records stay listed until every target
// confirms.
func (s *Service) ListActive(ctx context.Context) ([]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing revocations")
	}
	var active []Record
	for _, r := range records {
		if _, done := r.confirmedAt(); !done {
			active = append(active, r)
		}
	}
	return active, nil
}

// SLAMetrics summarizes completed revocations. In-flight revocations
// are excluded so a slow ongoing propagation cannot skew the average.
func (s *Service) SLAMetrics(ctx context.Context) (SLAReport, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return SLAReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "listing revocations")
	}

	var report SLAReport
	var totalLatency time.Duration
	for _, r := range records {
		completedAt, done := r.confirmedAt()
		if !done {
			continue
		}
		report.Completed++
		totalLatency += completedAt.Sub(r.InitiatedAt)
		if !completedAt.After(r.SLADeadline) {
			report.WithinSLA++
		}
	}
	if report.Completed > 0 {
		report.CompliancePct = 100 * float64(report.WithinSLA) / float64(report.Completed)
		report.AvgLatencySecs = (totalLatency / time.Duration(report.Completed)).Seconds()
	}
	s.metrics.SetSLACompliance(report.CompliancePct / 100)
	return report, nil
}

// IsSubjectRevoked is the enforcement check. A hit records an access
// denied event on the current correlation chain.
func (s *Service) IsSubjectRevoked(ctx context.Context, subject string) (bool, error) {
	blocked, err := s.blocklist.IsBlocked(ctx, subject)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "checking blocklist")
	}
	if blocked {
		s.metrics.IncrementBlockedCheck()
		s.record(ctx, audit.EventRevocationAccessDenied, subject, "", audit.DecisionDeny, "subject access revoked")
	}
	return blocked, nil
}

func (s *Service) get(ctx context.Context, id string) (Record, error) {
	record, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Record{}, dErrors.New(dErrors.CodeNotFound, "no revocation "+id)
	}
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading revocation record")
	}
	return record, nil
}

func (s *Service) record(ctx context.Context, eventType audit.EventType, subject, resource string, decision audit.Decision, reason string) {
	_, err := s.recorder.Append(ctx, audit.Event{
		CorrelationID: requestcontext.CorrelationID(ctx),
		EventType:     eventType,
		Subject:       subject,
		Action:        "access_revocation",
		Resource:      resource,
		Decision:      decision,
		Reason:        reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}

func (s *Service) recordLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.recordLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.recordLocks[id] = lock
	}
	return lock
}
