package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"custos/internal/analyzer"
	"custos/internal/catalog"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Inventory defines the snapshot operations the handler needs.
type Inventory interface {
	Capture(ctx context.Context) (catalog.Snapshot, error)
	Latest() (catalog.Snapshot, bool)
}

// Handler handles principal catalog endpoints.
type Handler struct {
	inventory Inventory
	logger    *slog.Logger
}

func New(inventory Inventory, logger *slog.Logger) *Handler {
	return &Handler{inventory: inventory, logger: logger}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/catalog/principals", h.handleListPrincipals)
	r.Get("/catalog/risk", h.handleRisk)
}

func (h *Handler) handleListPrincipals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	snap, ok := h.inventory.Latest()
	if !ok {
		fresh, err := h.inventory.Capture(ctx)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		snap = fresh
	}
	snap = analyzer.Annotate(snap)

	filtered, err := filterPrincipals(snap.Principals, query.Get("environment"), query.Get("owner"), query.Get("risk_rating"), query.Get("inactive"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, pageSize, err := pagination(query.Get("page"), query.Get("page_size"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"captured_at": snap.CapturedAt,
		"page":        page,
		"page_size":   pageSize,
		"total":       len(filtered),
		"principals":  filtered[start:end],
	})
}

// handleRisk always captures a fresh snapshot: risk review should see
// the inventory as it is now, not as it was at the last page load.
func (h *Handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	snap, err := h.inventory.Capture(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analyzer.Report(analyzer.Annotate(snap)))
}

func filterPrincipals(principals []catalog.Principal, environment, owner, riskRating, inactive string) ([]catalog.Principal, error) {
	var wantInactive *bool
	if inactive != "" {
		parsed, err := strconv.ParseBool(inactive)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "inactive must be a boolean")
		}
		wantInactive = &parsed
	}
	if riskRating != "" {
		switch catalog.RiskRating(strings.ToUpper(riskRating)) {
		case catalog.RiskLow, catalog.RiskMedium, catalog.RiskHigh:
		default:
			return nil, dErrors.New(dErrors.CodeValidation, "risk_rating must be LOW, MEDIUM or HIGH")
		}
	}

	out := make([]catalog.Principal, 0, len(principals))
	for _, p := range principals {
		if environment != "" && p.Environment != environment {
			continue
		}
		if owner != "" && p.Owner != owner {
			continue
		}
		if riskRating != "" && p.Risk != catalog.RiskRating(strings.ToUpper(riskRating)) {
			continue
		}
		if wantInactive != nil && p.Inactive != *wantInactive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func pagination(rawPage, rawSize string) (int, int, error) {
	page := 1
	if rawPage != "" {
		parsed, err := strconv.Atoi(rawPage)
		if err != nil || parsed < 1 {
			return 0, 0, dErrors.New(dErrors.CodeValidation, "page must be a positive integer")
		}
		page = parsed
	}
	size := defaultPageSize
	if rawSize != "" {
		parsed, err := strconv.Atoi(rawSize)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			return 0, 0, dErrors.Newf(dErrors.CodeValidation, "page_size must be between 1 and %d", maxPageSize)
		}
		size = parsed
	}
	return page, size, nil
}
