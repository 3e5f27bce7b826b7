package inventory

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/stock-card", h.handleStockCard)
	r.Post("/products/{id}/adjustments", h.handleAdjustment)
}

type adjustmentRequest struct {
	Delta int64  `json:"delta"`
	Note  string `json:"note"`
}

func (h *Handler) handleStockCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := StockCardFilter{Limit: httpx.QueryInt(r, "limit", 0)}
	var err error
	if filter.From, err = parseDate(q.Get("from")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.To, err = parseDate(q.Get("to")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.Add(24*time.Hour - time.Nanosecond)
	}
	entries, err := h.service.StockCard(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.AdjustStock(r.Context(), Adjustment{
		ProductID: chi.URLParam(r, "id"),
		Delta:     req.Delta,
		Note:      req.Note,
	})
	if err != nil {
		h.logger.Warn("stock adjustment failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, shared.Invalid("date %q must be YYYY-MM-DD", raw)
	}
	return t, nil
}
