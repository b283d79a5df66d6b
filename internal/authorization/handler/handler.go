package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/authorization"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for authorization operations.
type Service interface {
	SetAuthorizedTools(ctx context.Context, agentID string, tools []string, reason string) (authorization.ChangeReport, error)
	GetMapping(ctx context.Context, agentID string) (authorization.Mapping, error)
	ListChangeHistory(ctx context.Context, agentID string) ([]authorization.ChangeReport, error)
	CheckToolAuthorized(ctx context.Context, agentID, toolID string) (authorization.CheckResult, error)
}

// Handler handles agent tool mapping endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the agent mapping routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/agents/{agentID}/tools", func(r chi.Router) {
		r.Get("/", h.handleGetTools)
		r.Put("/", h.handleSetTools)
		r.Get("/history", h.handleHistory)
		r.Get("/{toolID}/check", h.handleCheck)
	})
}

type setToolsRequest struct {
	Tools  []string `json:"tools"`
	Reason string   `json:"reason"`
}

func (h *Handler) handleGetTools(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	mapping, err := h.service.GetMapping(ctx, agentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, mapping)
}

func (h *Handler) handleSetTools(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[setToolsRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}

	report, err := h.service.SetAuthorizedTools(ctx, agentID, req.Tools, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "tool mapping update rejected",
			slog.String("agent_id", agentID),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	history, err := h.service.ListChangeHistory(ctx, agentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"agent_id": agentID,
		"changes":  history,
	})
}

// handleCheck reports whether the agent may invoke the tool. A denial
// is a normal outcome, not an error status.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")
	toolID := chi.URLParam(r, "toolID")

	result, err := h.service.CheckToolAuthorized(ctx, agentID, toolID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
