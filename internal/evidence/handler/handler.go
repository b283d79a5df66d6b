package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/audit"
	"custos/internal/evidence"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
)

// Builder defines the interface for evidence operations.
type Builder interface {
	Reconstruct(ctx context.Context, correlationID string) (evidence.ChainReport, error)
	GenerateEvidencePack(ctx context.Context, hoursBack int, includeMetrics bool) (evidence.Pack, error)
	Decisions(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
	AggregateDecisions(ctx context.Context, filter audit.Filter, dimension string) (map[string]int, error)
}

// Handler handles evidence and decision review endpoints.
type Handler struct {
	builder Builder
	logger  *slog.Logger
}

func New(builder Builder, logger *slog.Logger) *Handler {
	return &Handler{builder: builder, logger: logger}
}

// Register registers the evidence routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/evidence/pack", h.handlePack)
	r.Get("/evidence/chains/{correlationID}", h.handleChain)
	r.Get("/decisions", h.handleDecisions)
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	hoursBack := 24
	if raw := r.URL.Query().Get("hours_back"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "hours_back must be an integer"))
			return
		}
		hoursBack = parsed
	}
	includeMetrics := r.URL.Query().Get("include_metrics") != "false"

	pack, err := h.builder.GenerateEvidencePack(r.Context(), hoursBack, includeMetrics)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pack)
}

func (h *Handler) handleChain(w http.ResponseWriter, r *http.Request) {
	report, err := h.builder.Reconstruct(r.Context(), chi.URLParam(r, "correlationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := audit.Filter{
		CorrelationID: query.Get("correlation_id"),
		Subject:       query.Get("subject"),
		Resource:      query.Get("resource"),
		Action:        query.Get("action"),
		Decision:      audit.Decision(query.Get("decision")),
		EventType:     audit.EventType(query.Get("event_type")),
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "from must be RFC 3339"))
			return
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "to must be RFC 3339"))
			return
		}
		filter.To = to
	}

	if dimension := query.Get("aggregate_by"); dimension != "" {
		counts, err := h.builder.AggregateDecisions(ctx, filter, dimension)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"aggregate_by": dimension,
			"counts":       counts,
		})
		return
	}

	events, err := h.builder.Decisions(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"decisions": events})
}
