package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

// salePrice accepts a JSON number, a numeric string, an empty string or
// null. The dashboard form posts "" for a blank price field.
type salePrice struct {
	value *float64
}

func (p *salePrice) UnmarshalJSON(data []byte) error {
	p.value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("sale_price must be a number")
	}
	p.value = &f
	return nil
}

func (p salePrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// Float returns the parsed price, or nil when none was sent.
func (p salePrice) Float() *float64 { return p.value }

// salePriceValue lets validator tags such as gte apply to the parsed price.
func salePriceValue(v reflect.Value) any {
	p, ok := v.Interface().(salePrice)
	if !ok || p.value == nil {
		return nil
	}
	return *p.value
}

func registerSchemaTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(salePriceValue, salePrice{})
}

// productRequest is the full record set posted by the add/edit form.
type productRequest struct {
	Name            string    `json:"name"             validate:"required"`
	IMCode          string    `json:"im_code"`
	Status          string    `json:"status"           validate:"required"`
	Date            string    `json:"date"`
	SalePrice       salePrice `json:"sale_price"       validate:"omitempty,gte=0" swaggertype:"number"`
	SaleDate        string    `json:"sale_date"`
	ServiceDate     string    `json:"service_date"`
	Barcode         string    `json:"barcode"`
	Storage         string    `json:"storage"`
	RAM             string    `json:"ram"`
	SponsorName     string    `json:"sponsor_name"`
	BuyerName       string    `json:"buyer_name"`
	ExchangeDetails string    `json:"exchange_details"`
	Description     string    `json:"description"`
	PurchaseSource  string    `json:"purchase_source"`
}

func (r productRequest) toInput() ports.ProductInput {
	return ports.ProductInput{
		Name:            r.Name,
		IMCode:          r.IMCode,
		Status:          r.Status,
		Date:            r.Date,
		SalePrice:       r.SalePrice.Float(),
		SaleDate:        r.SaleDate,
		ServiceDate:     r.ServiceDate,
		Barcode:         r.Barcode,
		Storage:         r.Storage,
		RAM:             r.RAM,
		SponsorName:     r.SponsorName,
		BuyerName:       r.BuyerName,
		ExchangeDetails: r.ExchangeDetails,
		Description:     r.Description,
		PurchaseSource:  r.PurchaseSource,
	}
}

// sellRequest is what the sell step of the editor collects.
type sellRequest struct {
	SalePrice       salePrice `json:"sale_price"       validate:"required,gte=0" swaggertype:"number"`
	SaleDate        string    `json:"sale_date"`
	BuyerName       string    `json:"buyer_name"`
	ExchangeDetails string    `json:"exchange_details"`
}

func (r sellRequest) toInput() ports.SaleInput {
	return ports.SaleInput{
		SalePrice:       r.SalePrice.Float(),
		SaleDate:        r.SaleDate,
		BuyerName:       r.BuyerName,
		ExchangeDetails: r.ExchangeDetails,
	}
}

type productListResponse struct {
	Data []*domain.Product `json:"data"`
}

type productResponse struct {
	Data *domain.Product `json:"data"`
}

type createProductResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sellResponse struct {
	Message string          `json:"message"`
	Data    *domain.Product `json:"data"`
}

type receiptBody struct {
	ProductID       int64  `json:"product_id"`
	Item            string `json:"item"`
	Specs           string `json:"specs"`
	IMCode          string `json:"im_code"`
	SponsorName     string `json:"sponsor_name"`
	BuyerName       string `json:"buyer_name"`
	ExchangeDetails string `json:"exchange_details"`
	SaleDate        string `json:"sale_date"`
	// Total is a fixed two-decimal string, e.g. "1199.50".
	Total    string `json:"total"`
	IssuedAt string `json:"issued_at"`
}

type receiptResponse struct {
	Data receiptBody `json:"data"`
}

func toReceiptBody(r *ports.Receipt) receiptBody {
	return receiptBody{
		ProductID:       r.ProductID,
		Item:            r.Item,
		Specs:           r.Specs,
		IMCode:          r.IMCode,
		SponsorName:     r.SponsorName,
		BuyerName:       r.BuyerName,
		ExchangeDetails: r.ExchangeDetails,
		SaleDate:        r.SaleDate,
		Total:           r.Total.StringFixed(2),
		IssuedAt:        r.IssuedAt.Format(time.RFC3339),
	}
}
