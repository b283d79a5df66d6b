package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/revocation"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service defines the interface for revocation operations.
type Service interface {
	Initiate(ctx context.Context, subject, reason, requestedBy string, targets []string) (revocation.Record, error)
	MarkPropagated(ctx context.Context, id, system string) (revocation.Record, error)
	MarkFailed(ctx context.Context, id, system, cause string) (revocation.Record, error)
	TrackStatus(ctx context.Context, id string) (revocation.StatusReport, error)
	ListActive(ctx context.Context) ([]revocation.Record, error)
	SLAMetrics(ctx context.Context) (revocation.SLAReport, error)
}

// Handler handles revocation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the revocation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/revocations", func(r chi.Router) {
		r.Post("/", h.handleInitiate)
		r.Get("/", h.handleListActive)
		r.Get("/sla", h.handleSLAMetrics)
		r.Get("/{id}", h.handleTrackStatus)
		r.Post("/{id}/propagate", h.handlePropagate)
	})
}

type initiateRequest struct {
	Subject     string   `json:"subject"`
	Reason      string   `json:"reason"`
	RequestedBy string   `json:"requested_by"`
	Targets     []string `json:"targets"`
}

type propagateRequest struct {
	System string `json:"system"`
	Failed bool   `json:"failed,omitempty"`
	Cause  string `json:"cause,omitempty"`
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[initiateRequest](ctx, w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	record, err := h.service.Initiate(ctx, req.Subject, req.Reason, req.RequestedBy, req.Targets)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handlePropagate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	req, ok := httputil.Decode[propagateRequest](ctx, w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var record revocation.Record
	var err error
	if req.Failed {
		record, err = h.service.MarkFailed(ctx, id, req.System, req.Cause)
	} else {
		record, err = h.service.MarkPropagated(ctx, id, req.System)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleTrackStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.TrackStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"active": active})
}

func (h *Handler) handleSLAMetrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SLAMetrics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
