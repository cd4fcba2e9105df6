package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

func ptr(f float64) *float64 { return &f }

func seedProduct(t *testing.T, repo *ProductRepository, p domain.Product) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &p)
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))
	ctx := context.Background()

	id := seedProduct(t, repo, domain.Product{
		Name:        "iPhone 12",
		IMCode:      "356789012345678",
		Status:      domain.StatusStock,
		Date:        "2026-01-10",
		Barcode:     "8901234567890",
		Storage:     "128GB",
		RAM:         "4GB",
		SponsorName: "Ravi",
	})

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "iPhone 12", got.Name)
	assert.Equal(t, domain.StatusStock, got.Status)
	assert.Equal(t, "128GB", got.Storage)
	assert.Equal(t, "Ravi", got.SponsorName)
	assert.Nil(t, got.SalePrice)
	assert.Empty(t, got.BuyerName)
}

func TestProductRepository_FindByIDMissing(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_ListFiltersAndOrder(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))
	ctx := context.Background()

	first := seedProduct(t, repo, domain.Product{Name: "iPhone 11", Status: domain.StatusStock, Barcode: "111"})
	second := seedProduct(t, repo, domain.Product{Name: "Galaxy S21", Status: domain.StatusSales, SponsorName: "Meena"})
	third := seedProduct(t, repo, domain.Product{Name: "Pixel 6", Status: domain.StatusStock, IMCode: "IM-999"})

	all, err := repo.List(ctx, ports.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{all[0].ID, all[1].ID, all[2].ID})

	stock, err := repo.List(ctx, ports.ProductFilter{Status: "Stock"})
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, third, stock[0].ID)

	tests := []struct {
		search string
		want   []int64
	}{
		{"iphone", []int64{first}},
		{"IM-9", []int64{third}},
		{"11", []int64{first}},
		{"meena", []int64{second}},
		{"nothing-like-this", []int64{}},
	}
	for _, tc := range tests {
		got, err := repo.List(ctx, ports.ProductFilter{Search: tc.search})
		require.NoError(t, err)
		ids := make([]int64, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, tc.want, ids, "search %q", tc.search)
	}

	both, err := repo.List(ctx, ports.ProductFilter{Status: "Sales", Search: "pixel"})
	require.NoError(t, err)
	assert.Empty(t, both)
}

func TestProductRepository_FindByBarcode(t *testing.T) {
	db := migratedTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	clean := seedProduct(t, repo, domain.Product{Name: "Clean", Status: domain.StatusStock, Barcode: "12345"})
	// Legacy row written before barcodes were normalised.
	_, err := db.Query(ctx, "INSERT INTO products (name, status, barcode) VALUES (?, ?, ?)", "Legacy", "Stock", " 67890 ")
	require.NoError(t, err)

	got, err := repo.FindByBarcode(ctx, "12345", false)
	require.NoError(t, err)
	assert.Equal(t, clean, got.ID)

	_, err = repo.FindByBarcode(ctx, "67890", false)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	got, err = repo.FindByBarcode(ctx, "67890", true)
	require.NoError(t, err)
	assert.Equal(t, "Legacy", got.Name)
}

func TestProductRepository_FindByBarcodeTrimsControlWhitespace(t *testing.T) {
	db := migratedTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	// Scanners in keyboard-wedge mode append a tab or newline.
	for name, code := range map[string]string{"Tabbed": "\t12345\n", "Carriage": "54321\r\n", "Feed": "\v777\f"} {
		_, err := db.Query(ctx, "INSERT INTO products (name, status, barcode) VALUES (?, ?, ?)", name, "Stock", code)
		require.NoError(t, err)
	}

	for code, want := range map[string]string{"12345": "Tabbed", "54321": "Carriage", " 777 ": "Feed"} {
		_, err := repo.FindByBarcode(ctx, code, false)
		assert.ErrorIs(t, err, domain.ErrProductNotFound, "exact match for %q", code)

		got, err := repo.FindByBarcode(ctx, code, true)
		require.NoError(t, err, "trimmed match for %q", code)
		assert.Equal(t, want, got.Name)
	}
}

func TestProductRepository_FindByBarcodeReturnsLowestID(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))

	first := seedProduct(t, repo, domain.Product{Name: "A", Status: domain.StatusStock, Barcode: "dup"})
	seedProduct(t, repo, domain.Product{Name: "B", Status: domain.StatusStock, Barcode: "dup"})

	got, err := repo.FindByBarcode(context.Background(), "dup", false)
	require.NoError(t, err)
	assert.Equal(t, first, got.ID)
}

func TestProductRepository_Update(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))
	ctx := context.Background()

	id := seedProduct(t, repo, domain.Product{Name: "iPhone 12", Status: domain.StatusStock, BuyerName: "old"})

	err := repo.Update(ctx, &domain.Product{
		ID:        id,
		Name:      "iPhone 12",
		Status:    domain.StatusSales,
		SalePrice: ptr(1199.5),
		SaleDate:  "2026-05-04",
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSales, got.Status)
	require.NotNil(t, got.SalePrice)
	assert.InDelta(t, 1199.5, *got.SalePrice, 0.0001)
	assert.Equal(t, "2026-05-04", got.SaleDate)
	assert.Empty(t, got.BuyerName, "omitted fields are cleared")
}

func TestProductRepository_UpdateMissing(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))

	err := repo.Update(context.Background(), &domain.Product{ID: 7, Name: "x", Status: domain.StatusStock})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_Delete(t *testing.T) {
	repo := NewProductRepository(migratedTestDB(t))
	ctx := context.Background()

	id := seedProduct(t, repo, domain.Product{Name: "gone", Status: domain.StatusStock})
	require.NoError(t, repo.Delete(ctx, id))

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.NoError(t, repo.Delete(ctx, id), "deleting a missing id is not an error")
}
