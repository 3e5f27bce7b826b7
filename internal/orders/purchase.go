package orders

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/customers"
	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// CreatePurchaseOrder composes a purchase order from a supplier. The supplier
// name is copied onto the order. Stock is received only when AddToInventory is set.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in PurchaseOrderInput) (PurchaseOrderWithItems, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return PurchaseOrderWithItems{}, err
	}
	if in.Status == "" {
		in.Status = PurchaseDraft
	}
	if err := shared.Validate(in); err != nil {
		return PurchaseOrderWithItems{}, err
	}
	if !in.Status.Valid() {
		return PurchaseOrderWithItems{}, shared.Invalid("unknown purchase status %q", in.Status)
	}
	settings := s.cfg.Tax
	if in.Tax != nil {
		settings = *in.Tax
	}
	items := pricePurchaseLines(in.Items)

	now := s.now()
	var out PurchaseOrderWithItems
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		supplier, err := customers.NewRepository(tx).Get(ctx, tenant, in.SupplierID)
		if err != nil {
			return err
		}
		if supplier.Type != customers.TypeSupplier {
			return shared.Invalid("%s is not a supplier", supplier.ID)
		}
		if err := requireProducts(ctx, tx, tenant, items); err != nil {
			return err
		}
		f, err := composePurchase(items, structuredTax(settings, supplier.State))
		if err != nil {
			return err
		}
		id, err := s.ids.Next(ctx, tx, s.cfg.PurchasePrefix)
		if err != nil {
			return err
		}

		meta := shared.NewMeta(tenant, now)
		meta.ID = id
		orderDate := in.OrderDate
		if orderDate.IsZero() {
			orderDate = now
		}
		order := PurchaseOrder{
			Meta:           meta,
			SupplierID:     supplier.ID,
			SupplierName:   supplier.Name,
			Status:         in.Status,
			OrderDate:      orderDate.UTC(),
			Subtotal:       f.Subtotal,
			Tax:            f.Tax.Tax,
			CGST:           f.cgst(),
			SGST:           f.sgst(),
			Total:          f.Total,
			PaidAmount:     in.PaidAmount,
			BalanceDue:     balanceDue(f.Total, in.PaidAmount),
			AddToInventory: in.AddToInventory,
			Notes:          in.Notes,
		}
		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].PurchaseOrderID = order.ID
		}

		if err := s.repo.WithTx(tx).InsertPurchaseOrder(ctx, order, items); err != nil {
			return err
		}
		out = PurchaseOrderWithItems{PurchaseOrder: order, Items: items}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntityPurchaseOrder, order.ID, outbox.ActionCreate, out); err != nil {
			return err
		}
		if !order.AddToInventory {
			return nil
		}
		for _, it := range items {
			adj := inventory.Adjustment{ProductID: it.ProductID, Delta: it.Quantity, RefModule: inventory.RefPurchase, RefID: order.ID}
			if _, err := s.ledger.Apply(ctx, tx, adj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrderWithItems{}, err
	}
	s.logger.Info("purchase order composed",
		slog.String("order_id", out.PurchaseOrder.ID),
		slog.Int("items", len(out.Items)),
		slog.Bool("add_to_inventory", out.PurchaseOrder.AddToInventory),
		slog.String("total", out.PurchaseOrder.Total.String()))
	return out, nil
}

// GetPurchaseOrderWithItems loads one purchase order and its lines.
func (s *Service) GetPurchaseOrderWithItems(ctx context.Context, id string) (PurchaseOrderWithItems, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return PurchaseOrderWithItems{}, err
	}
	order, err := s.repo.GetPurchaseOrder(ctx, tenant, id)
	if err != nil {
		return PurchaseOrderWithItems{}, err
	}
	items, err := s.repo.ListPurchaseItems(ctx, tenant, order.ID)
	if err != nil {
		return PurchaseOrderWithItems{}, err
	}
	return PurchaseOrderWithItems{PurchaseOrder: order, Items: items}, nil
}

// UpdatePurchaseOrderStatus moves the order to any known status.
func (s *Service) UpdatePurchaseOrderStatus(ctx context.Context, id string, status PurchaseStatus) (PurchaseOrder, error) {
	if !status.Valid() {
		return PurchaseOrder{}, shared.Invalid("unknown purchase status %q", status)
	}
	return s.mutatePurchaseOrder(ctx, id, func(o *PurchaseOrder) {
		o.Status = status
	})
}

// UpdatePurchaseOrderNotes replaces the order notes.
func (s *Service) UpdatePurchaseOrderNotes(ctx context.Context, id, notes string) (PurchaseOrder, error) {
	return s.mutatePurchaseOrder(ctx, id, func(o *PurchaseOrder) {
		o.Notes = notes
	})
}

// RecordPurchaseOrderPayment adds amount to the paid amount and recomputes the balance due.
func (s *Service) RecordPurchaseOrderPayment(ctx context.Context, id string, amount decimal.Decimal) (PurchaseOrder, error) {
	if !amount.IsPositive() {
		return PurchaseOrder{}, shared.Invalid("payment amount must be positive")
	}
	return s.mutatePurchaseOrder(ctx, id, func(o *PurchaseOrder) {
		o.PaidAmount = o.PaidAmount.Add(amount)
		o.BalanceDue = balanceDue(o.Total, o.PaidAmount)
	})
}

func (s *Service) mutatePurchaseOrder(ctx context.Context, id string, fn func(*PurchaseOrder)) (PurchaseOrder, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}
	var updated PurchaseOrder
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetPurchaseOrder(ctx, tenant, id)
		if err != nil {
			return err
		}
		next := current
		fn(&next)
		next.Meta = current.Meta.Next(s.now())
		if err := repo.UpdatePurchaseOrder(ctx, next, current.Version); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntityPurchaseOrder, next.ID, outbox.ActionUpdate, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return updated, nil
}

// DeletePurchaseOrder removes the order and its lines. Orders that added stock
// take it back out; the result may go negative.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id string) error {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetPurchaseOrder(ctx, tenant, id); err != nil {
		return err
	}
	if err := s.checkGuards(ctx, KindPurchase, id); err != nil {
		return err
	}

	var reversed int
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetPurchaseOrder(ctx, tenant, id)
		if err != nil {
			return err
		}
		items, err := repo.ListPurchaseItems(ctx, tenant, order.ID)
		if err != nil {
			return err
		}
		if order.AddToInventory {
			for _, it := range items {
				adj := inventory.Adjustment{ProductID: it.ProductID, Delta: -it.Quantity, RefModule: inventory.RefPurchase, RefID: order.ID, Note: "order deleted"}
				if _, err := s.ledger.Apply(ctx, tx, adj); err != nil {
					return err
				}
				reversed++
			}
		}
		if err := repo.DeletePurchaseOrder(ctx, tenant, order.ID); err != nil {
			return err
		}
		snapshot := PurchaseOrderWithItems{PurchaseOrder: order, Items: items}
		_, err = s.outbox.Enqueue(ctx, tx, outbox.EntityPurchaseOrder, order.ID, outbox.ActionDelete, snapshot)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", slog.String("order_id", id), slog.Int("items_reversed", reversed))
	return nil
}

// ListPurchaseOrders returns every matching purchase order, newest first.
func (s *Service) ListPurchaseOrders(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	orders, _, err := s.repo.ListPurchaseOrders(ctx, tenant, filter, 0, 0)
	return orders, err
}

// ListPurchaseOrdersPaginated returns one page of matching purchase orders.
func (s *Service) ListPurchaseOrdersPaginated(ctx context.Context, filter ListFilter, page, pageSize int) (shared.Page[PurchaseOrder], error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return shared.Page[PurchaseOrder]{}, err
	}
	meta := shared.NewPagination(page, pageSize, 0)
	orders, total, err := s.repo.ListPurchaseOrders(ctx, tenant, filter, meta.PageSize, meta.Offset())
	if err != nil {
		return shared.Page[PurchaseOrder]{}, err
	}
	if orders == nil {
		orders = []PurchaseOrder{}
	}
	return shared.Page[PurchaseOrder]{Items: orders, Pagination: shared.NewPagination(meta.Page, meta.PageSize, total)}, nil
}
