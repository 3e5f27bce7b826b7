package orders

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Handler wires HTTP endpoints for sales and purchase orders.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs order handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountSalesRoutes registers sales order routes.
func (h *Handler) MountSalesRoutes(r chi.Router) {
	r.Get("/", h.handleListSales)
	r.Post("/", h.handleCreateSales)
	r.Get("/{id}", h.handleGetSales)
	r.Delete("/{id}", h.handleDeleteSales)
	r.Patch("/{id}/status", h.handleSalesStatus)
	r.Patch("/{id}/notes", h.handleSalesNotes)
	r.Post("/{id}/payments", h.handleSalesPayment)
}

// MountPurchaseRoutes registers purchase order routes.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Get("/", h.handleListPurchases)
	r.Post("/", h.handleCreatePurchase)
	r.Get("/{id}", h.handleGetPurchase)
	r.Delete("/{id}", h.handleDeletePurchase)
	r.Patch("/{id}/status", h.handlePurchaseStatus)
	r.Patch("/{id}/notes", h.handlePurchaseNotes)
	r.Post("/{id}/payments", h.handlePurchasePayment)
}

type createSalesRequest struct {
	SalesOrderInput
	LegacyTaxRate *decimal.Decimal `json:"legacyTaxRate,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

func listFilter(r *http.Request, partyKey string) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{Status: q.Get("status"), PartyID: q.Get(partyKey)}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListFilter{}, shared.Invalid("%s must be YYYY-MM-DD", key)
		}
		*dst = t
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.Add(24*time.Hour - time.Nanosecond)
	}
	return filter, nil
}

func (h *Handler) handleListSales(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, "customerId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListSalesOrdersPaginated(r.Context(), filter, httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "pageSize", 0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreateSales(w http.ResponseWriter, r *http.Request) {
	var req createSalesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var (
		out SalesOrderWithItems
		err error
	)
	if req.LegacyTaxRate != nil {
		out, err = h.service.CreateSalesOrderLegacy(r.Context(), req.SalesOrderInput, *req.LegacyTaxRate)
	} else {
		out, err = h.service.CreateSalesOrder(r.Context(), req.SalesOrderInput)
	}
	if err != nil {
		h.logger.Warn("create sales order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) handleGetSales(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetSalesOrderWithItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeleteSales(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSalesOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSalesStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdateSalesOrderStatus(r.Context(), chi.URLParam(r, "id"), SalesStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleSalesNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdateSalesOrderNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleSalesPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.RecordSalesOrderPayment(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Method)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, "supplierId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListPurchaseOrdersPaginated(r.Context(), filter, httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "pageSize", 0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var in PurchaseOrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.CreatePurchaseOrder(r.Context(), in)
	if err != nil {
		h.logger.Warn("create purchase order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetPurchaseOrderWithItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePurchaseOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdatePurchaseOrderStatus(r.Context(), chi.URLParam(r, "id"), PurchaseStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handlePurchaseNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdatePurchaseOrderNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handlePurchasePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.RecordPurchaseOrderPayment(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
