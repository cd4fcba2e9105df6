package ports

import (
	"context"

	"github.com/refonic/inventory/internal/core/domain"
)

// ProductFilter carries the list endpoint's query parameters.
type ProductFilter struct {
	Status string // empty = no filter
	Search string // substring match on name, im_code, barcode, sponsor_name
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	// FindByBarcode returns the first product whose barcode equals code.
	// When trimmed is true both sides are compared with surrounding
	// whitespace removed.
	FindByBarcode(ctx context.Context, code string, trimmed bool) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (int64, error)
	// Update overwrites every column of the row. It returns
	// domain.ErrProductNotFound when no row has p.ID.
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
}
