package products

import (
	"context"
	"database/sql"
	"strings"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Service implements the product entity store. Stock is moved by the inventory
// ledger, never here.
type Service struct {
	conn   *sql.DB
	repo   *Repository
	outbox *outbox.Service
	now    shared.Clock
}

// NewService builds Service. A nil clock uses the system clock.
func NewService(conn *sql.DB, sync *outbox.Service, now shared.Clock) *Service {
	if now == nil {
		now = shared.SystemClock
	}
	return &Service{conn: conn, repo: NewRepository(conn), outbox: sync, now: now}
}

// Create stores a new product at version 1 with zero stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.DefaultDiscountType == "" {
		in.DefaultDiscountType = DiscountAmount
	}
	if err := shared.Validate(in); err != nil {
		return Product{}, err
	}
	if err := validDiscount(in.DefaultDiscount, in.DefaultDiscountType); err != nil {
		return Product{}, err
	}
	if err := notNegative("salePrice", in.SalePrice); err != nil {
		return Product{}, err
	}
	if in.ReorderLevel != nil && *in.ReorderLevel < 0 {
		return Product{}, shared.Invalid("reorderLevel must not be negative")
	}

	p := Product{
		Meta:                shared.NewMeta(tenant, s.now()),
		SKU:                 strings.TrimSpace(in.SKU),
		Barcode:             strings.TrimSpace(in.Barcode),
		Title:               in.Title,
		Description:         in.Description,
		Unit:                in.Unit,
		MRP:                 in.MRP,
		DefaultDiscount:     in.DefaultDiscount,
		DefaultDiscountType: in.DefaultDiscountType,
		Cost:                in.Cost,
		ReorderLevel:        in.ReorderLevel,
	}
	if in.SalePrice != nil {
		p.SalePrice = *in.SalePrice
		p.SalePriceOverride = true
	}
	p.reprice()

	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Insert(ctx, p); err != nil {
			return err
		}
		_, err := s.outbox.Enqueue(ctx, tx, outbox.EntityProduct, p.ID, outbox.ActionCreate, p)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get returns the product, archived or not.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, tenant, id)
}

// Update applies a partial update without checking the caller's version.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	return s.update(ctx, id, nil, in)
}

// UpdateIfVersion applies a partial update only when the stored version equals expected.
func (s *Service) UpdateIfVersion(ctx context.Context, id string, expected int64, in UpdateInput) (Product, error) {
	return s.update(ctx, id, &expected, in)
}

// Archive hides the product from listings. It stays gettable and updatable.
func (s *Service) Archive(ctx context.Context, id string) (Product, error) {
	archived := true
	return s.update(ctx, id, nil, UpdateInput{IsArchived: &archived})
}

func (s *Service) update(ctx context.Context, id string, expected *int64, in UpdateInput) (Product, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := in.validate(); err != nil {
		return Product{}, err
	}

	var updated Product
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := shared.CheckVersion(current.Version, expected); err != nil {
			return err
		}
		next := current
		in.apply(&next)
		if err := validDiscount(next.DefaultDiscount, next.DefaultDiscountType); err != nil {
			return err
		}
		next.Meta = current.Meta.Next(s.now())
		if err := repo.Update(ctx, next, current.Version); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, tx, outbox.EntityProduct, next.ID, outbox.ActionUpdate, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// List returns the tenant's non-archived products ordered by title.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenant)
}

// Search returns non-archived products whose title, SKU, barcode or description
// contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.matches(query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPaginated returns one page of the search results.
func (s *Service) ListPaginated(ctx context.Context, query string, page, pageSize int) (shared.Page[Product], error) {
	all, err := s.List(ctx)
	if err != nil {
		return shared.Page[Product]{}, err
	}
	return shared.Paginate(all, page, pageSize, func(p Product) bool { return p.matches(query) }), nil
}

// ListLowStock returns non-archived products at or below their reorder level,
// most depleted first.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLowStock(ctx, tenant)
}
