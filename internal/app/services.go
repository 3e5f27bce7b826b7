package app

import (
	"database/sql"
	"log/slog"

	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/observability"
	"github.com/odyssey-erp/odyssey-retail/internal/orders"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Services bundles the domain services sharing one local store.
type Services struct {
	Outbox    *outbox.Service
	Customers *customers.Service
	Products  *products.Service
	Inventory *inventory.Service
	Orders    *orders.Service
}

// NewServices wires every domain service against conn. A nil clock uses the
// system clock.
func NewServices(conn *sql.DB, cfg *Config, logger *slog.Logger, metrics *observability.Metrics, now shared.Clock) *Services {
	queue := outbox.NewService(conn, now)
	alerts := &LowStockAlerts{Logger: logger, Metrics: metrics}
	ledger := inventory.NewService(conn, queue, now, logger, alerts)
	return &Services{
		Outbox:    queue,
		Customers: customers.NewService(conn, queue, now),
		Products:  products.NewService(conn, queue, now),
		Inventory: ledger,
		Orders:    orders.NewService(conn, queue, ledger, cfg.IDGenerator(), cfg.OrdersConfig(), now, logger),
	}
}

// Handlers builds the HTTP handlers for s.
func (s *Services) Handlers(logger *slog.Logger) RouterParams {
	return RouterParams{
		Logger:           logger,
		CustomersHandler: customers.NewHandler(logger, s.Customers),
		ProductsHandler:  products.NewHandler(logger, s.Products),
		InventoryHandler: inventory.NewHandler(logger, s.Inventory),
		OrdersHandler:    orders.NewHandler(logger, s.Orders),
		OutboxHandler:    outbox.NewHandler(logger, s.Outbox),
	}
}
