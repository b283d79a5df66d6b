package integration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"custos/internal/audit"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Service manages the integration approval lifecycle. Decisions are
// one-shot: once a request leaves REQUESTED it never transitions again.
type Service struct {
	store    Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, recorder *audit.Recorder, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "request store is required")
	}
	if recorder == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, recorder: recorder, logger: logger}, nil
}

// Submit records a new integration request in REQUESTED state.
func (s *Service) Submit(ctx context.Context, systemName, requester, purpose string, scopes []string) (Request, error) {
	if systemName == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "system_name is required")
	}
	if requester == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "requester is required")
	}

	request := Request{
		ID:          uuid.NewString(),
		SystemName:  systemName,
		Requester:   requester,
		Scopes:      append([]string(nil), scopes...),
		Purpose:     purpose,
		Status:      StatusRequested,
		RequestedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, request); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving integration request")
	}

	s.record(ctx, audit.EventIntegrationRequested, requester, systemName, audit.DecisionAllow, "integration requested")
	s.logger.InfoContext(ctx, "integration requested",
		slog.String("request_id", request.ID),
		slog.String("system", systemName))
	return request, nil
}

// Approve grants a request for expiryDays from the decision instant.
// Only REQUESTED requests can be approved; re-deciding is a conflict.
func (s *Service) Approve(ctx context.Context, id, approver string, expiryDays int) (Request, error) {
	if approver == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "approver is required")
	}
	if expiryDays < 0 {
		return Request{}, dErrors.New(dErrors.CodeValidation, "expiry_days must not be negative")
	}

	request, err := s.get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if request.Status != StatusRequested {
		return Request{}, dErrors.Newf(dErrors.CodeConflict, "request %s already decided: %s", id, request.Status)
	}

	now := requestcontext.Now(ctx)
	request.Status = StatusApproved
	request.DecidedAt = &now
	request.Approver = approver
	request.ExpiryDays = expiryDays
	if err := s.store.Save(ctx, request); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving approval")
	}

	s.record(ctx, audit.EventIntegrationApproved, approver, request.SystemName, audit.DecisionAllow, "integration approved")
	return request, nil
}

// Deny rejects a REQUESTED request with a reason.
func (s *Service) Deny(ctx context.Context, id, approver, reason string) (Request, error) {
	if approver == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "approver is required")
	}

	request, err := s.get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if request.Status != StatusRequested {
		return Request{}, dErrors.Newf(dErrors.CodeConflict, "request %s already decided: %s", id, request.Status)
	}

	now := requestcontext.Now(ctx)
	request.Status = StatusDenied
	request.DecidedAt = &now
	request.Approver = approver
	request.Reason = reason
	if err := s.store.Save(ctx, request); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "saving denial")
	}

	s.record(ctx, audit.EventIntegrationDenied, approver, request.SystemName, audit.DecisionDeny, reason)
	return request, nil
}

// Get returns a request with its status resolved against the clock.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	request, err := s.get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	request.Status = request.EffectiveStatus(requestcontext.Now(ctx))
	return request, nil
}

// IsAllowed reports whether the integration behind the request may be
// used right now. Unknown requests are simply not allowed.
func (s *Service) IsAllowed(ctx context.Context, id string) (bool, error) {
	request, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "loading integration request")
	}
	return request.IsAllowed(requestcontext.Now(ctx)), nil
}

func (s *Service) get(ctx context.Context, id string) (Request, error) {
	request, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Request{}, dErrors.New(dErrors.CodeNotFound, "no integration request "+id)
	}
	if err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading integration request")
	}
	return request, nil
}

func (s *Service) record(ctx context.Context, eventType audit.EventType, subject, resource string, decision audit.Decision, reason string) {
	_, err := s.recorder.Append(ctx, audit.Event{
		CorrelationID: requestcontext.CorrelationID(ctx),
		EventType:     eventType,
		Subject:       subject,
		Action:        "integration_access",
		Resource:      resource,
		Decision:      decision,
		Reason:        reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit event",
			slog.String("resource", resource),
			slog.String("error", err.Error()))
	}
}
