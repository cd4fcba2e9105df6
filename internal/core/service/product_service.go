package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

type ProductService struct {
	repo   ports.ProductRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewProductService(repo ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger, now: time.Now}
}

// List returns products matching filter, newest first. A status of "All" is
// treated as no status filter.
func (s *ProductService) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	if filter.Status == domain.StatusAll {
		filter.Status = ""
	}
	filter.Search = strings.TrimSpace(filter.Search)

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// Create stores a new product and returns its generated id.
func (s *ProductService) Create(ctx context.Context, input ports.ProductInput) (int64, error) {
	p, err := productFromInput(input)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return 0, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("status", string(p.Status)).Msg("product created")
	return id, nil
}

// Update overwrites the full record set of product id.
func (s *ProductService) Update(ctx context.Context, id int64, input ports.ProductInput) error {
	p, err := productFromInput(input)
	if err != nil {
		return err
	}
	p.ID = id

	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}

	s.logger.Info().Int64("id", id).Str("status", string(p.Status)).Msg("product updated")
	return nil
}

// Delete removes product id. Deleting an id that does not exist succeeds.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.logger.Info().Int64("id", id).Msg("product deleted")
	return nil
}

// Scan looks a product up by barcode: an exact match first, then a match with
// surrounding whitespace ignored on both sides.
func (s *ProductService) Scan(ctx context.Context, barcode string) (*ports.ScanResult, error) {
	if barcode == "" {
		return nil, domain.ErrProductNotFound
	}

	p, err := s.repo.FindByBarcode(ctx, barcode, false)
	if err == nil {
		return &ports.ScanResult{Product: p}, nil
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("scan %q: %w", barcode, err)
	}

	trimmed := domain.NormalizeBarcode(barcode)
	if trimmed == "" {
		return nil, domain.ErrProductNotFound
	}

	p, err = s.repo.FindByBarcode(ctx, trimmed, true)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Debug().Str("barcode", barcode).Msg("barcode not found")
			return nil, err
		}
		return nil, fmt.Errorf("scan %q: %w", barcode, err)
	}
	return &ports.ScanResult{Product: p, Trimmed: true}, nil
}

// Sell marks product id as sold with the sale details and returns the
// updated record. The update and the read-back are separate statements.
func (s *ProductService) Sell(ctx context.Context, id int64, sale ports.SaleInput) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sell product %d: %w", id, err)
	}

	p.Status = domain.StatusSales
	p.SalePrice = sale.SalePrice
	p.SaleDate = strings.TrimSpace(sale.SaleDate)
	if p.SaleDate == "" {
		p.SaleDate = s.now().Format("2006-01-02")
	}
	p.BuyerName = strings.TrimSpace(sale.BuyerName)
	p.ExchangeDetails = sale.ExchangeDetails

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("sell product %d: %w", id, err)
	}

	sold, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sell product %d: reload: %w", id, err)
	}

	s.logger.Info().Int64("id", id).Str("buyer", sold.BuyerName).Msg("product sold")
	return sold, nil
}

// Receipt builds the printable bill for a sold product.
func (s *ProductService) Receipt(ctx context.Context, id int64) (*ports.Receipt, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("receipt %d: %w", id, err)
	}
	if p.Status != domain.StatusSales {
		return nil, fmt.Errorf("receipt %d: %w", id, domain.ErrProductNotSold)
	}

	total := decimal.Zero
	if p.SalePrice != nil {
		total = decimal.NewFromFloat(*p.SalePrice).Round(2)
	}

	return &ports.Receipt{
		ProductID:       p.ID,
		Item:            p.Name,
		Specs:           specs(p.RAM, p.Storage),
		IMCode:          p.IMCode,
		SponsorName:     p.SponsorName,
		BuyerName:       p.BuyerName,
		ExchangeDetails: p.ExchangeDetails,
		SaleDate:        p.SaleDate,
		Total:           total,
		IssuedAt:        s.now().UTC(),
	}, nil
}

func productFromInput(in ports.ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidProduct)
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", domain.ErrInvalidProduct)
	}

	return &domain.Product{
		Name:            name,
		IMCode:          in.IMCode,
		Status:          domain.ProductStatus(status),
		Date:            in.Date,
		SalePrice:       in.SalePrice,
		SaleDate:        in.SaleDate,
		ServiceDate:     in.ServiceDate,
		Barcode:         domain.NormalizeBarcode(in.Barcode),
		Storage:         in.Storage,
		RAM:             in.RAM,
		SponsorName:     in.SponsorName,
		BuyerName:       in.BuyerName,
		ExchangeDetails: in.ExchangeDetails,
		Description:     in.Description,
		PurchaseSource:  in.PurchaseSource,
	}, nil
}

// specs renders "RAM / storage" the way the bill prints it.
func specs(ram, storage string) string {
	switch {
	case ram == "" && storage == "":
		return ""
	case ram == "":
		return storage
	case storage == "":
		return ram
	}
	return ram + " / " + storage
}
