package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/refonic/inventory/internal/core/domain"
)

// ProductInput is the full record set sent by the add/edit form.
type ProductInput struct {
	Name            string
	IMCode          string
	Status          string
	Date            string
	SalePrice       *float64
	SaleDate        string
	ServiceDate     string
	Barcode         string
	Storage         string
	RAM             string
	SponsorName     string
	BuyerName       string
	ExchangeDetails string
	Description     string
	PurchaseSource  string
}

// SaleInput is what the sell step of the editor collects.
type SaleInput struct {
	SalePrice       *float64
	SaleDate        string
	BuyerName       string
	ExchangeDetails string
}

// ScanResult reports how a barcode lookup matched.
type ScanResult struct {
	Product *domain.Product
	// Trimmed is true when only the whitespace-insensitive lookup matched.
	Trimmed bool
}

// Receipt is the printable bill for a sold product.
type Receipt struct {
	ProductID       int64
	Item            string
	Specs           string
	IMCode          string
	SponsorName     string
	BuyerName       string
	ExchangeDetails string
	SaleDate        string
	Total           decimal.Decimal
	IssuedAt        time.Time
}

// ProductService defines use-case operations for the inventory.
type ProductService interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (int64, error)
	Update(ctx context.Context, id int64, input ProductInput) error
	Delete(ctx context.Context, id int64) error
	Scan(ctx context.Context, barcode string) (*ScanResult, error)
	Sell(ctx context.Context, id int64, sale SaleInput) (*domain.Product, error)
	Receipt(ctx context.Context, id int64) (*Receipt, error)
}
