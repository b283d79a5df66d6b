package authorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"custos/internal/audit"
	"custos/internal/authorization/metrics"
	"custos/internal/classification"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Service owns agent tool mappings. Updates are atomic per agent: a
// request that includes even one unapprovable tool changes nothing.
type Service struct {
	store     Store
	registry  *classification.Registry
	approvals *classification.ApprovalStore
	recorder  *audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu         sync.Mutex
	agentLocks map[string]*sync.Mutex
}

func NewService(store Store, registry *classification.Registry, approvals *classification.ApprovalStore, recorder *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "mapping store is required")
	}
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "classification registry is required")
	}
	if approvals == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "approval store is required")
	}
	if recorder == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		registry:   registry,
		approvals:  approvals,
		recorder:   recorder,
		metrics:    m,
		logger:     logger,
		agentLocks: make(map[string]*sync.Mutex),
	}, nil
}

// SetAuthorizedTools replaces an agent's tool set. The update is all or
// nothing: if any requested tool needs an approval that is missing or
// expired, the whole request is denied and the current mapping stands.
// The caller's reason, when given, is carried into the per-tool audit
// events.
func (s *Service) SetAuthorizedTools(ctx context.Context, agentID string, tools []string, reason string) (ChangeReport, error) {
	if agentID == "" {
		return ChangeReport{}, dErrors.New(dErrors.CodeValidation, "agent_id is required")
	}
	requested := normalizeTools(tools)
	for _, toolID := range requested {
		if toolID == "" {
			return ChangeReport{}, dErrors.New(dErrors.CodeValidation, "tool ids must be non-empty")
		}
	}
	now := requestcontext.Now(ctx)

	lock := s.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	for _, toolID := range requested {
		if s.toolAllowed(ctx, toolID, now) {
			continue
		}
		cause := fmt.Sprintf("tool %s requires an active approval", toolID)
		s.recordDecision(ctx, agentID, toolID, audit.EventAuthorizationDenied, audit.DecisionDeny, cause)
		s.metrics.IncrementDecision("update", string(audit.DecisionDeny))
		return ChangeReport{}, dErrors.New(dErrors.CodeAuthorizationDenied, cause)
	}

	current, err := s.store.Get(ctx, agentID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return ChangeReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading mapping")
	}

	report := diffTools(agentID, current.Tools, requested)
	report.Revision = current.Revision + 1
	report.UpdatedAt = now

	mapping := Mapping{AgentID: agentID, Tools: requested, Revision: report.Revision, UpdatedAt: now}
	if err := s.store.Save(ctx, mapping); err != nil {
		return ChangeReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving mapping")
	}
	if err := s.store.SaveChange(ctx, report); err != nil {
		return ChangeReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving change report")
	}

	addedReason := "tool added to authorized set"
	removedReason := "tool removed from authorized set"
	if reason != "" {
		addedReason += ": " + reason
		removedReason += ": " + reason
	}
	for _, toolID := range report.Added {
		s.recordDecision(ctx, agentID, toolID, audit.EventAuthorizationGranted, audit.DecisionAllow, addedReason)
	}
	for _, toolID := range report.Removed {
		s.recordDecision(ctx, agentID, toolID, audit.EventAuthorizationRevoked, audit.DecisionAllow, removedReason)
	}
	s.metrics.IncrementDecision("update", string(audit.DecisionAllow))
	if mappings, err := s.store.List(ctx); err == nil {
		s.metrics.SetMappedAgents(len(mappings))
	}

	s.logger.InfoContext(ctx, "authorized tools updated",
		slog.String("agent_id", agentID),
		slog.Int("revision", report.Revision),
		slog.Int("added", len(report.Added)),
		slog.Int("removed", len(report.Removed)))
	return report, nil
}

// CheckToolAuthorized answers whether an agent may invoke a tool right
// now. An unknown agent is a deny, not an error: callers asking about
// agents we have never seen should fail closed.
func (s *Service) CheckToolAuthorized(ctx context.Context, agentID, toolID string) (CheckResult, error) {
	if agentID == "" || toolID == "" {
		return CheckResult{}, dErrors.New(dErrors.CodeValidation, "agent_id and tool_id are required")
	}

	result := CheckResult{AgentID: agentID, ToolID: toolID}
	mapping, err := s.store.Get(ctx, agentID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		result.Reason = fmt.Sprintf("agent %s has no authorized tools", agentID)
	case err != nil:
		return CheckResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading mapping")
	case mapping.Has(toolID):
		result.Allowed = true
		result.Reason = fmt.Sprintf("tool %s is in the authorized list for %s", toolID, agentID)
	default:
		result.Reason = fmt.Sprintf("tool %s is NOT in the authorized list for %s", toolID, agentID)
	}

	decision := audit.DecisionDeny
	if result.Allowed {
		decision = audit.DecisionAllow
	}
	s.recordDecision(ctx, agentID, toolID, audit.EventAuthorizationDecision, decision, result.Reason)
	s.metrics.IncrementDecision("check", string(decision))
	return result, nil
}

// CleanupDeprecatedTool removes a tool from every mapping that carries
// it and returns the affected agent IDs.
func (s *Service) CleanupDeprecatedTool(ctx context.Context, toolID string) ([]string, error) {
	if toolID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tool_id is required")
	}
	now := requestcontext.Now(ctx)

	mappings, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing mappings")
	}

	var affected []string
	for _, mapping := range mappings {
		if !mapping.Has(toolID) {
			continue
		}
		lock := s.agentLock(mapping.AgentID)
		lock.Lock()
		current, err := s.store.Get(ctx, mapping.AgentID)
		if err != nil {
			lock.Unlock()
			return affected, dErrors.Wrap(err, dErrors.CodeInternal, "loading mapping")
		}
		remaining := make([]string, 0, len(current.Tools))
		for _, t := range current.Tools {
			if t != toolID {
				remaining = append(remaining, t)
			}
		}
		report := diffTools(current.AgentID, current.Tools, remaining)
		report.Revision = current.Revision + 1
		report.UpdatedAt = now
		updated := Mapping{AgentID: current.AgentID, Tools: remaining, Revision: report.Revision, UpdatedAt: now}
		if err := s.store.Save(ctx, updated); err != nil {
			lock.Unlock()
			return affected, dErrors.Wrap(err, dErrors.CodeInternal, "saving mapping")
		}
		if err := s.store.SaveChange(ctx, report); err != nil {
			lock.Unlock()
			return affected, dErrors.Wrap(err, dErrors.CodeInternal, "saving change report")
		}
		lock.Unlock()

		affected = append(affected, current.AgentID)
		s.recordDecision(ctx, current.AgentID, toolID, audit.EventToolDeprecated, audit.DecisionAllow, "tool deprecated and removed")
	}
	sort.Strings(affected)
	return affected, nil
}

// GetMapping returns the current mapping for an agent.
func (s *Service) GetMapping(ctx context.Context, agentID string) (Mapping, error) {
	mapping, err := s.store.Get(ctx, agentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Mapping{}, dErrors.New(dErrors.CodeNotFound, "no mapping for agent "+agentID)
	}
	if err != nil {
		return Mapping{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading mapping")
	}
	return mapping, nil
}

// ListChangeHistory returns every change report recorded for an agent,
// oldest first.
func (s *Service) ListChangeHistory(ctx context.Context, agentID string) ([]ChangeReport, error) {
	changes, err := s.store.ListChanges(ctx, agentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing change history")
	}
	return changes, nil
}

func (s *Service) toolAllowed(ctx context.Context, toolID string, now time.Time) bool {
	var approval *classification.ApprovalRecord
	if record, ok := s.approvals.FindActive(ctx, toolID, now); ok {
		approval = &record
	}
	return classification.IsAccessAllowed(toolID, s.registry, approval, now)
}

func (s *Service) recordDecision(ctx context.Context, agentID, toolID string, eventType audit.EventType, decision audit.Decision, reason string) {
	correlationID := requestcontext.CorrelationID(ctx)
	_, err := s.recorder.Append(ctx, audit.Event{
		CorrelationID: correlationID,
		EventType:     eventType,
		Subject:       agentID,
		Action:        "tool_invocation",
		Resource:      toolID,
		Decision:      decision,
		Reason:        reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit event",
			slog.String("agent_id", agentID),
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) agentLock(agentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.agentLocks[agentID]
	if !ok {
		lock = &sync.Mutex{}
		s.agentLocks[agentID] = lock
	}
	return lock
}

func normalizeTools(tools []string) []string {
	seen := make(map[string]bool, len(tools))
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func diffTools(agentID string, before, after []string) ChangeReport {
	prev := make(map[string]bool, len(before))
	for _, t := range before {
		prev[t] = true
	}
	next := make(map[string]bool, len(after))
	for _, t := range after {
		next[t] = true
	}

	report := ChangeReport{AgentID: agentID, Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	for _, t := range after {
		if prev[t] {
			report.Unchanged = append(report.Unchanged, t)
		} else {
			report.Added = append(report.Added, t)
		}
	}
	for _, t := range before {
		if !next[t] {
			report.Removed = append(report.Removed, t)
		}
	}
	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Strings(report.Unchanged)
	return report
}
