package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/integration"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for integration approval operations.
type Service interface {
	Submit(ctx context.Context, systemName, requester, purpose string, scopes []string) (integration.Request, error)
	Approve(ctx context.Context, id, approver string, expiryDays int) (integration.Request, error)
	Deny(ctx context.Context, id, approver, reason string) (integration.Request, error)
	Get(ctx context.Context, id string) (integration.Request, error)
}

// Handler handles integration approval endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the integration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/integrations", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/deny", h.handleDeny)
	})
}

type submitRequest struct {
	SystemName string   `json:"system_name"`
	Requester  string   `json:"requester"`
	Purpose    string   `json:"purpose"`
	Scopes     []string `json:"scopes"`
}

type approveRequest struct {
	Approver   string `json:"approver"`
	ExpiryDays int    `json:"expiry_days"`
}

type denyRequest struct {
	Approver string `json:"approver"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[submitRequest](ctx, w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	request, err := h.service.Submit(ctx, req.SystemName, req.Requester, req.Purpose, req.Scopes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[approveRequest](ctx, w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	request, err := h.service.Approve(ctx, chi.URLParam(r, "id"), req.Approver, req.ExpiryDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[denyRequest](ctx, w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	request, err := h.service.Deny(ctx, chi.URLParam(r, "id"), req.Approver, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}
