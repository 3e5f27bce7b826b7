package outbox

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Handler exposes the sync queue to the local push driver and the UI.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs outbox handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers outbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pending", h.handlePending)
	r.Get("/stats", h.handleStats)
	r.Post("/ack", h.handleAck)
}

type ackRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

type ackResponse struct {
	Synced int64 `json:"synced"`
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListPendingBatch(r.Context(), httpx.QueryInt(r, "limit", 0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []SyncRecord{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAck(w http.ResponseWriter, r *http.Request) {
	var req ackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.MarkSynced(r.Context(), req.IDs)
	if err != nil {
		h.logger.Warn("ack sync records failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ackResponse{Synced: changed})
}
