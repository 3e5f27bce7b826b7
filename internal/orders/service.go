package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/sequence"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

// Config carries order numbering and the default tax settings.
type Config struct {
	SalesPrefix    string
	PurchasePrefix string
	Tax            tax.Settings
}

// Service composes, mutates and deletes orders. Every public write is one
// transaction covering the order, its lines, stock movements and sync records.
type Service struct {
	conn   *sql.DB
	repo   *Repository
	outbox *outbox.Service
	ledger *inventory.Service
	ids    *sequence.Generator
	cfg    Config
	now    shared.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	guards []DeleteGuard
}

// NewService builds Service. A nil clock uses the system clock.
func NewService(conn *sql.DB, queue *outbox.Service, ledger *inventory.Service, ids *sequence.Generator, cfg Config, now shared.Clock, logger *slog.Logger) *Service {
	if now == nil {
		now = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SalesPrefix == "" {
		cfg.SalesPrefix = "SO"
	}
	if cfg.PurchasePrefix == "" {
		cfg.PurchasePrefix = "PO"
	}
	return &Service{conn: conn, repo: NewRepository(conn), outbox: queue, ledger: ledger, ids: ids, cfg: cfg, now: now, logger: logger}
}

// RegisterDeleteGuard adds a check consulted before any order is deleted.
func (s *Service) RegisterDeleteGuard(g DeleteGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guards = append(s.guards, g)
}

func (s *Service) checkGuards(ctx context.Context, kind Kind, id string) error {
	s.mu.RLock()
	guards := append([]DeleteGuard(nil), s.guards...)
	s.mu.RUnlock()
	for _, g := range guards {
		if err := g(ctx, kind, id); err != nil {
			return fmt.Errorf("%w: %s %s cannot be deleted: %v", shared.ErrConflict, kind, id, err)
		}
	}
	return nil
}

// CreateSalesOrder composes a sales order, taxing the discount-adjusted
// subtotal with structured settings resolved for the customer's state.
func (s *Service) CreateSalesOrder(ctx context.Context, in SalesOrderInput) (SalesOrderWithItems, error) {
	settings := s.cfg.Tax
	if in.Tax != nil {
		settings = *in.Tax
	}
	return s.createSalesOrder(ctx, in, func(c customers.Customer) taxRule {
		return structuredTax(settings, c.State)
	})
}

// CreateSalesOrderLegacy composes a sales order taxed at one flat percentage
// on the raw subtotal, the computation older callers rely on.
func (s *Service) CreateSalesOrderLegacy(ctx context.Context, in SalesOrderInput, ratePercent decimal.Decimal) (SalesOrderWithItems, error) {
	if ratePercent.IsNegative() || ratePercent.GreaterThan(hundred) {
		return SalesOrderWithItems{}, shared.Invalid("tax rate %s out of range", ratePercent)
	}
	return s.createSalesOrder(ctx, in, func(customers.Customer) taxRule {
		return flatTax(ratePercent)
	})
}

func (s *Service) createSalesOrder(ctx context.Context, in SalesOrderInput, ruleFor func(customers.Customer) taxRule) (SalesOrderWithItems, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return SalesOrderWithItems{}, err
	}
	if in.Status == "" {
		in.Status = SalesDraft
	}
	if in.DiscountType == "" {
		in.DiscountType = products.DiscountAmount
	}
	if err := shared.Validate(in); err != nil {
		return SalesOrderWithItems{}, err
	}
	if !in.Status.Valid() {
		return SalesOrderWithItems{}, shared.Invalid("unknown sales status %q", in.Status)
	}
	items, err := priceSalesLines(in.Items)
	if err != nil {
		return SalesOrderWithItems{}, err
	}

	now := s.now()
	var out SalesOrderWithItems
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		customer, err := customers.NewRepository(tx).Get(ctx, tenant, in.CustomerID)
		if err != nil {
			return err
		}
		if err := requireProducts(ctx, tx, tenant, items); err != nil {
			return err
		}
		f, err := composeSales(items, in.Discount, in.DiscountType, in.RoundFigure, ruleFor(customer))
		if err != nil {
			return err
		}
		id, err := s.ids.Next(ctx, tx, s.cfg.SalesPrefix)
		if err != nil {
			return err
		}

		meta := shared.NewMeta(tenant, now)
		meta.ID = id
		issued := in.IssuedDate
		if issued.IsZero() {
			issued = now
		}
		order := SalesOrder{
			Meta:          meta,
			CustomerID:    customer.ID,
			Status:        in.Status,
			IssuedDate:    issued.UTC(),
			DueDate:       utcPtr(in.DueDate),
			Subtotal:      f.Subtotal,
			Discount:      f.Discount,
			DiscountType:  in.DiscountType,
			DiscountValue: in.Discount,
			Tax:           f.Tax.Tax,
			CGST:          f.cgst(),
			SGST:          f.sgst(),
			Total:         f.Total,
			PaidAmount:    in.PaidAmount,
			BalanceDue:    balanceDue(f.Total, in.PaidAmount),
			PaymentMethod: in.PaymentMethod,
			RoundFigure:   in.RoundFigure,
			Notes:         in.Notes,
		}
		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].SalesOrderID = order.ID
		}

		if err := s.repo.WithTx(tx).InsertSalesOrder(ctx, order, items); err != nil {
			return err
		}
		out = SalesOrderWithItems{SalesOrder: order, Items: items}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntitySalesOrder, order.ID, outbox.ActionCreate, out); err != nil {
			return err
		}
		for _, it := range items {
			adj := inventory.Adjustment{ProductID: it.ProductID, Delta: -it.Quantity, RefModule: inventory.RefSales, RefID: order.ID}
			if _, err := s.ledger.Apply(ctx, tx, adj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SalesOrderWithItems{}, err
	}
	s.logger.Info("sales order composed",
		slog.String("order_id", out.SalesOrder.ID),
		slog.Int("items", len(out.Items)),
		slog.String("total", out.SalesOrder.Total.String()))
	return out, nil
}

// GetSalesOrderWithItems loads one sales order and its lines.
func (s *Service) GetSalesOrderWithItems(ctx context.Context, id string) (SalesOrderWithItems, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return SalesOrderWithItems{}, err
	}
	order, err := s.repo.GetSalesOrder(ctx, tenant, id)
	if err != nil {
		return SalesOrderWithItems{}, err
	}
	items, err := s.repo.ListSalesItems(ctx, tenant, order.ID)
	if err != nil {
		return SalesOrderWithItems{}, err
	}
	return SalesOrderWithItems{SalesOrder: order, Items: items}, nil
}

// UpdateSalesOrderStatus moves the order to any known status.
func (s *Service) UpdateSalesOrderStatus(ctx context.Context, id string, status SalesStatus) (SalesOrder, error) {
	if !status.Valid() {
		return SalesOrder{}, shared.Invalid("unknown sales status %q", status)
	}
	return s.mutateSalesOrder(ctx, id, func(o *SalesOrder) {
		o.Status = status
	})
}

// UpdateSalesOrderNotes replaces the order notes.
func (s *Service) UpdateSalesOrderNotes(ctx context.Context, id, notes string) (SalesOrder, error) {
	return s.mutateSalesOrder(ctx, id, func(o *SalesOrder) {
		o.Notes = notes
	})
}

// RecordSalesOrderPayment adds amount to the paid amount and recomputes the balance due.
func (s *Service) RecordSalesOrderPayment(ctx context.Context, id string, amount decimal.Decimal, method string) (SalesOrder, error) {
	if !amount.IsPositive() {
		return SalesOrder{}, shared.Invalid("payment amount must be positive")
	}
	return s.mutateSalesOrder(ctx, id, func(o *SalesOrder) {
		o.PaidAmount = o.PaidAmount.Add(amount)
		o.BalanceDue = balanceDue(o.Total, o.PaidAmount)
		if method != "" {
			o.PaymentMethod = method
		}
	})
}

func (s *Service) mutateSalesOrder(ctx context.Context, id string, fn func(*SalesOrder)) (SalesOrder, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return SalesOrder{}, err
	}
	var updated SalesOrder
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetSalesOrder(ctx, tenant, id)
		if err != nil {
			return err
		}
		next := current
		fn(&next)
		next.Meta = current.Meta.Next(s.now())
		if err := repo.UpdateSalesOrder(ctx, next, current.Version); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntitySalesOrder, next.ID, outbox.ActionUpdate, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}
	return updated, nil
}

// DeleteSalesOrder returns every sold quantity to stock and removes the order
// and its lines. Registered guards run first; any veto is a conflict.
func (s *Service) DeleteSalesOrder(ctx context.Context, id string) error {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetSalesOrder(ctx, tenant, id); err != nil {
		return err
	}
	if err := s.checkGuards(ctx, KindSales, id); err != nil {
		return err
	}

	var restored int
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetSalesOrder(ctx, tenant, id)
		if err != nil {
			return err
		}
		items, err := repo.ListSalesItems(ctx, tenant, order.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			adj := inventory.Adjustment{ProductID: it.ProductID, Delta: it.Quantity, RefModule: inventory.RefSales, RefID: order.ID, Note: "order deleted"}
			if _, err := s.ledger.Apply(ctx, tx, adj); err != nil {
				return err
			}
		}
		if err := repo.DeleteSalesOrder(ctx, tenant, order.ID); err != nil {
			return err
		}
		snapshot := SalesOrderWithItems{SalesOrder: order, Items: items}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntitySalesOrder, order.ID, outbox.ActionDelete, snapshot); err != nil {
			return err
		}
		restored = len(items)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("sales order deleted", slog.String("order_id", id), slog.Int("items_restocked", restored))
	return nil
}

// ListSalesOrders returns every matching sales order, newest first.
func (s *Service) ListSalesOrders(ctx context.Context, filter ListFilter) ([]SalesOrder, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	orders, _, err := s.repo.ListSalesOrders(ctx, tenant, filter, 0, 0)
	return orders, err
}

// ListSalesOrdersPaginated returns one page of matching sales orders.
func (s *Service) ListSalesOrdersPaginated(ctx context.Context, filter ListFilter, page, pageSize int) (shared.Page[SalesOrder], error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return shared.Page[SalesOrder]{}, err
	}
	meta := shared.NewPagination(page, pageSize, 0)
	orders, total, err := s.repo.ListSalesOrders(ctx, tenant, filter, meta.PageSize, meta.Offset())
	if err != nil {
		return shared.Page[SalesOrder]{}, err
	}
	if orders == nil {
		orders = []SalesOrder{}
	}
	return shared.Page[SalesOrder]{Items: orders, Pagination: shared.NewPagination(meta.Page, meta.PageSize, total)}, nil
}

// requireProducts reports the first missing product as not found.
func requireProducts[L interface{ productID() string }](ctx context.Context, q db.DBTX, tenant string, lines []L) error {
	repo := products.NewRepository(q)
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		id := l.productID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := repo.Get(ctx, tenant, id); err != nil {
			return err
		}
	}
	return nil
}

func (i SalesItem) productID() string    { return i.ProductID }
func (i PurchaseItem) productID() string { return i.ProductID }

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
