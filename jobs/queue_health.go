package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/httpx"
)

// QueueInspector is the part of asynq.Inspector the health endpoint reads.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// QueueHealthHandler reports the sync queue backlog over HTTP.
type QueueHealthHandler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewQueueHealthHandler builds the handler. A nil inspector reports an empty
// queue, which is what a store without redis has.
func NewQueueHealthHandler(inspector QueueInspector, logger *slog.Logger) *QueueHealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueHealthHandler{inspector: inspector, logger: logger}
}

func (h *QueueHealthHandler) MountRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

type queueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Paused    bool   `json:"paused"`
}

func (h *QueueHealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := queueHealth{Queue: QueueDefault}
	if h.inspector != nil {
		info, err := h.inspector.GetQueueInfo(QueueDefault)
		if err != nil {
			h.logger.Warn("read sync queue", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Sync queue unavailable", "the job queue could not be inspected")
			return
		}
		if info != nil {
			out = queueHealth{
				Queue:     info.Queue,
				Pending:   info.Pending,
				Active:    info.Active,
				Scheduled: info.Scheduled,
				Retry:     info.Retry,
				Archived:  info.Archived,
				Paused:    info.Paused,
			}
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}
