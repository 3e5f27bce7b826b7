package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/observability"
	"github.com/odyssey-erp/odyssey-retail/internal/orders"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CustomersHandler *customers.Handler
	ProductsHandler  *products.Handler
	InventoryHandler *inventory.Handler
	OrdersHandler    *orders.Handler
	OutboxHandler    *outbox.Handler
	JobHandler       *jobs.QueueHealthHandler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with retail defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/sales-orders", params.OrdersHandler.MountSalesRoutes)
			r.Route("/purchase-orders", params.OrdersHandler.MountPurchaseRoutes)
		}
		if params.OutboxHandler != nil {
			r.Route("/sync", params.OutboxHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
