package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

const salesColumns = `id, tenant_id, customer_id, status, issued_date, due_date, subtotal, discount,
	discount_type, discount_value, tax, cgst, sgst, total, paid_amount, balance_due, payment_method,
	round_figure, notes, created_at, updated_at, version`

const purchaseColumns = `id, tenant_id, supplier_id, supplier_name, status, order_date, subtotal, tax,
	cgst, sgst, total, paid_amount, balance_due, add_to_inventory, notes, created_at, updated_at, version`

// Repository provides persistence for sales and purchase orders.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// InsertSalesOrder writes the order header and its lines.
func (r *Repository) InsertSalesOrder(ctx context.Context, o SalesOrder, items []SalesItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sales_orders (`+salesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TenantID, o.CustomerID, string(o.Status), o.IssuedDate, o.DueDate,
		o.Subtotal.String(), o.Discount.String(), string(o.DiscountType), o.DiscountValue.String(),
		o.Tax.String(), o.CGST.String(), o.SGST.String(), o.Total.String(), o.PaidAmount.String(),
		o.BalanceDue.String(), o.PaymentMethod, o.RoundFigure, o.Notes, o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("orders: insert sales order: %w", err)
	}
	for _, it := range items {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO sales_order_items (id, sales_order_id, product_id, position, quantity, unit_price, discount, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.SalesOrderID, it.ProductID, it.Position, it.Quantity,
			it.UnitPrice.String(), it.Discount.String(), it.Total.String(),
		)
		if err != nil {
			return fmt.Errorf("orders: insert sales item %d: %w", it.Position, err)
		}
	}
	return nil
}

// GetSalesOrder loads one sales order header.
func (r *Repository) GetSalesOrder(ctx context.Context, tenantID, id string) (SalesOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+salesColumns+` FROM sales_orders WHERE tenant_id = ? AND id = ?`, tenantID, id)
	o, err := scanSalesOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SalesOrder{}, fmt.Errorf("%w: sales order %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return SalesOrder{}, fmt.Errorf("orders: get sales order: %w", err)
	}
	return o, nil
}

// ListSalesItems returns the lines of one tenant's order in position order.
func (r *Repository) ListSalesItems(ctx context.Context, tenantID, orderID string) ([]SalesItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.sales_order_id, i.product_id, i.position, i.quantity, i.unit_price, i.discount, i.line_total
		FROM sales_order_items i
		JOIN sales_orders o ON o.id = i.sales_order_id
		WHERE o.tenant_id = ? AND i.sales_order_id = ?
		ORDER BY i.position`, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: list sales items: %w", err)
	}
	defer rows.Close()

	var items []SalesItem
	for rows.Next() {
		var it SalesItem
		if err := rows.Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &it.Position, &it.Quantity, &it.UnitPrice, &it.Discount, &it.Total); err != nil {
			return nil, fmt.Errorf("orders: scan sales item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateSalesOrder rewrites the mutable header columns of the order read at version prev.
func (r *Repository) UpdateSalesOrder(ctx context.Context, o SalesOrder, prev int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sales_orders SET status = ?, due_date = ?, paid_amount = ?, balance_due = ?,
			payment_method = ?, notes = ?, updated_at = ?, version = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		string(o.Status), o.DueDate, o.PaidAmount.String(), o.BalanceDue.String(),
		o.PaymentMethod, o.Notes, o.UpdatedAt, o.Version,
		o.TenantID, o.ID, prev,
	)
	return checkUpdated(res, err, "sales order", o.ID)
}

// DeleteSalesOrder removes the order; its lines go with it.
func (r *Repository) DeleteSalesOrder(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales_orders WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return fmt.Errorf("orders: delete sales order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: sales order %s", shared.ErrNotFound, id)
	}
	return nil
}

// ListSalesOrders returns one window of matching orders, newest first, with the total count.
func (r *Repository) ListSalesOrders(ctx context.Context, tenantID string, filter ListFilter, limit, offset int) ([]SalesOrder, int, error) {
	where, args := listWhere(tenantID, "customer_id", "issued_date", filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count sales orders: %w", err)
	}

	query := `SELECT ` + salesColumns + ` FROM sales_orders WHERE ` + where + ` ORDER BY issued_date DESC, created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list sales orders: %w", err)
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		o, err := scanSalesOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("orders: scan sales order: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// InsertPurchaseOrder writes the order header and its lines.
func (r *Repository) InsertPurchaseOrder(ctx context.Context, o PurchaseOrder, items []PurchaseItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchase_orders (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TenantID, o.SupplierID, o.SupplierName, string(o.Status), o.OrderDate,
		o.Subtotal.String(), o.Tax.String(), o.CGST.String(), o.SGST.String(), o.Total.String(),
		o.PaidAmount.String(), o.BalanceDue.String(), o.AddToInventory, o.Notes, o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("orders: insert purchase order: %w", err)
	}
	for _, it := range items {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO purchase_order_items (id, purchase_order_id, product_id, position, quantity, unit_cost, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.PurchaseOrderID, it.ProductID, it.Position, it.Quantity, it.UnitCost.String(), it.Total.String(),
		)
		if err != nil {
			return fmt.Errorf("orders: insert purchase item %d: %w", it.Position, err)
		}
	}
	return nil
}

// GetPurchaseOrder loads one purchase order header.
func (r *Repository) GetPurchaseOrder(ctx context.Context, tenantID, id string) (PurchaseOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders WHERE tenant_id = ? AND id = ?`, tenantID, id)
	o, err := scanPurchaseOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PurchaseOrder{}, fmt.Errorf("%w: purchase order %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("orders: get purchase order: %w", err)
	}
	return o, nil
}

// ListPurchaseItems returns the lines of one tenant's order in position order.
func (r *Repository) ListPurchaseItems(ctx context.Context, tenantID, orderID string) ([]PurchaseItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.purchase_order_id, i.product_id, i.position, i.quantity, i.unit_cost, i.line_total
		FROM purchase_order_items i
		JOIN purchase_orders o ON o.id = i.purchase_order_id
		WHERE o.tenant_id = ? AND i.purchase_order_id = ?
		ORDER BY i.position`, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: list purchase items: %w", err)
	}
	defer rows.Close()

	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Position, &it.Quantity, &it.UnitCost, &it.Total); err != nil {
			return nil, fmt.Errorf("orders: scan purchase item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdatePurchaseOrder rewrites the mutable header columns of the order read at version prev.
func (r *Repository) UpdatePurchaseOrder(ctx context.Context, o PurchaseOrder, prev int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders SET status = ?, paid_amount = ?, balance_due = ?, notes = ?, updated_at = ?, version = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		string(o.Status), o.PaidAmount.String(), o.BalanceDue.String(), o.Notes, o.UpdatedAt, o.Version,
		o.TenantID, o.ID, prev,
	)
	return checkUpdated(res, err, "purchase order", o.ID)
}

// DeletePurchaseOrder removes the order; its lines go with it.
func (r *Repository) DeletePurchaseOrder(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return fmt.Errorf("orders: delete purchase order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: purchase order %s", shared.ErrNotFound, id)
	}
	return nil
}

// ListPurchaseOrders returns one window of matching orders, newest first, with the total count.
func (r *Repository) ListPurchaseOrders(ctx context.Context, tenantID string, filter ListFilter, limit, offset int) ([]PurchaseOrder, int, error) {
	where, args := listWhere(tenantID, "supplier_id", "order_date", filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count purchase orders: %w", err)
	}

	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE ` + where + ` ORDER BY order_date DESC, created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		o, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("orders: scan purchase order: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func listWhere(tenantID, partyColumn, dateColumn string, filter ListFilter) (string, []any) {
	where := `tenant_id = ?`
	args := []any{tenantID}
	if filter.Status != "" {
		where += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.PartyID != "" {
		where += ` AND ` + partyColumn + ` = ?`
		args = append(args, filter.PartyID)
	}
	if !filter.From.IsZero() {
		where += ` AND ` + dateColumn + ` >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		where += ` AND ` + dateColumn + ` <= ?`
		args = append(args, filter.To.UTC())
	}
	return where, args
}

func checkUpdated(res sql.Result, err error, what, id string) error {
	if err != nil {
		return fmt.Errorf("orders: update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("orders: update %s rows: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s changed concurrently", shared.ErrConflict, what, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSalesOrder(s scanner) (SalesOrder, error) {
	var (
		o            SalesOrder
		status, kind string
	)
	err := s.Scan(&o.ID, &o.TenantID, &o.CustomerID, &status, &o.IssuedDate, &o.DueDate,
		&o.Subtotal, &o.Discount, &kind, &o.DiscountValue, &o.Tax, &o.CGST, &o.SGST, &o.Total,
		&o.PaidAmount, &o.BalanceDue, &o.PaymentMethod, &o.RoundFigure, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return SalesOrder{}, err
	}
	o.Status = SalesStatus(status)
	o.DiscountType = products.DiscountType(kind)
	return o, nil
}

func scanPurchaseOrder(s scanner) (PurchaseOrder, error) {
	var (
		o      PurchaseOrder
		status string
	)
	err := s.Scan(&o.ID, &o.TenantID, &o.SupplierID, &o.SupplierName, &status, &o.OrderDate,
		&o.Subtotal, &o.Tax, &o.CGST, &o.SGST, &o.Total, &o.PaidAmount, &o.BalanceDue,
		&o.AddToInventory, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return PurchaseOrder{}, err
	}
	o.Status = PurchaseStatus(status)
	return o, nil
}
