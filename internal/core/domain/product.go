package domain

import (
	"errors"
	"strings"
)

// ProductStatus is the lifecycle category of an inventory record.
type ProductStatus string

const (
	StatusStock   ProductStatus = "Stock"
	StatusSales   ProductStatus = "Sales"
	StatusService ProductStatus = "Service"
)

// StatusAll is the filter value the dashboard sends to disable status filtering.
const StatusAll = "All"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrProductNotSold  = errors.New("product has not been sold")
)

// Product is a single phone in the inventory.
//
// Status is stored as free text; the known values are the Status* constants
// but older rows may carry anything.
type Product struct {
	ID              int64         `json:"id"               mapstructure:"id"`
	Name            string        `json:"name"             mapstructure:"name"`
	IMCode          string        `json:"im_code"          mapstructure:"im_code"`
	Status          ProductStatus `json:"status"           mapstructure:"status"`
	Date            string        `json:"date"             mapstructure:"date"`
	SalePrice       *float64      `json:"sale_price"       mapstructure:"sale_price"`
	SaleDate        string        `json:"sale_date"        mapstructure:"sale_date"`
	ServiceDate     string        `json:"service_date"     mapstructure:"service_date"`
	Barcode         string        `json:"barcode"          mapstructure:"barcode"`
	Storage         string        `json:"storage"          mapstructure:"storage"`
	RAM             string        `json:"ram"              mapstructure:"ram"`
	SponsorName     string        `json:"sponsor_name"     mapstructure:"sponsor_name"`
	BuyerName       string        `json:"buyer_name"       mapstructure:"buyer_name"`
	ExchangeDetails string        `json:"exchange_details" mapstructure:"exchange_details"`
	Description     string        `json:"description"      mapstructure:"description"`
	PurchaseSource  string        `json:"purchase_source"  mapstructure:"purchase_source"`
}

// IsKnown reports whether s is one of the statuses the UI offers.
func (s ProductStatus) IsKnown() bool {
	switch s {
	case StatusStock, StatusSales, StatusService:
		return true
	}
	return false
}

// NormalizeBarcode trims surrounding whitespace left behind by scanners and
// copy/paste. Barcodes are normalised on write; lookups also compare trimmed
// values so rows written before normalisation are still found.
func NormalizeBarcode(code string) string {
	return strings.TrimSpace(code)
}
