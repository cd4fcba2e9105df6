package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

const productColumns = "id, name, im_code, status, date, sale_price, sale_date, service_date, barcode, " +
	"storage, ram, sponsor_name, buyer_name, exchange_details, description, purchase_source"

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns products newest first.
func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		like := r.db.Dialect().LikeOperator()
		where = append(where, fmt.Sprintf(
			"(name %[1]s ? OR im_code %[1]s ? OR barcode %[1]s ? OR sponsor_name %[1]s ?)", like))
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	res, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(res.Rows))
	for _, row := range res.Rows {
		p, err := decodeProduct(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.findOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
}

// FindByBarcode returns the lowest-id product carrying code. With trimmed set
// the stored value is trimmed before comparing so legacy rows saved with
// stray whitespace still match.
func (r *ProductRepository) FindByBarcode(ctx context.Context, code string, trimmed bool) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cond := "barcode = ?"
	if trimmed {
		cond = r.db.Dialect().TrimSpace("barcode") + " = ?"
		code = strings.TrimSpace(code)
	}
	return r.findOne(ctx, "SELECT "+productColumns+" FROM products WHERE "+cond+" ORDER BY id LIMIT 1", code)
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := r.db.Dialect().InsertReturningID(`INSERT INTO products
		(name, im_code, status, date, sale_price, sale_date, service_date, barcode,
		 storage, ram, sponsor_name, buyer_name, exchange_details, description, purchase_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	res, err := r.db.Query(ctx, query, productArgs(p)...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	args := append(productArgs(p), p.ID)
	res, err := r.db.Query(ctx, `UPDATE products SET
		name = ?, im_code = ?, status = ?, date = ?, sale_price = ?, sale_date = ?, service_date = ?, barcode = ?,
		storage = ?, ram = ?, sponsor_name = ?, buyer_name = ?, exchange_details = ?, description = ?, purchase_source = ?
		WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	if res.RowCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes the row if present. Deleting a missing id is not an error.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.Query(ctx, "DELETE FROM products WHERE id = ?", id)
	return err
}

func (r *ProductRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	res, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return decodeProduct(res.Rows[0])
}

func productArgs(p *domain.Product) []any {
	var price any
	if p.SalePrice != nil {
		price = *p.SalePrice
	}
	return []any{
		p.Name,
		nullable(p.IMCode),
		string(p.Status),
		nullable(p.Date),
		price,
		nullable(p.SaleDate),
		nullable(p.ServiceDate),
		nullable(p.Barcode),
		nullable(p.Storage),
		nullable(p.RAM),
		nullable(p.SponsorName),
		nullable(p.BuyerName),
		nullable(p.ExchangeDetails),
		nullable(p.Description),
		nullable(p.PurchaseSource),
	}
}

// nullable stores empty optional text as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decodeProduct(row Row) (*domain.Product, error) {
	var p domain.Product
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return nil, fmt.Errorf("decode product row: %w", err)
	}
	return &p, nil
}
