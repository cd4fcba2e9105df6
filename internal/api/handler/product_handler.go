package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/refonic/inventory/internal/api/metrics"
	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

// ProductHandler handles HTTP requests for inventory records.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List handles GET /api/products.
//
// @Summary      List products
// @Description  Newest first. status=All (or no status) disables the status filter; search matches name, IM code, barcode and sponsor.
// @Tags         products
// @Produce      json
// @Param        status  query     string  false  "Stock, Sales, Service or All"
// @Param        search  query     string  false  "Substring to search for"
// @Success      200     {object}  productListResponse
// @Failure      500     {object}  map[string]string
// @Router       /api/products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.List(c.Request().Context(), ports.ProductFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, productListResponse{Data: products})
}

// Get handles GET /api/products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  productResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, productResponse{Data: p})
}

// Create handles POST /api/products.
//
// @Summary      Add a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      productRequest  true  "Product record"
// @Success      201   {object}  createProductResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	metrics.ProductsCreatedTotal.WithLabelValues(statusLabel(req.Status)).Inc()
	return c.JSON(http.StatusCreated, createProductResponse{Message: "Product added", ID: id})
}

// Update handles PUT /api/products/:id.
//
// @Summary      Replace a product record
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      int             true  "Product id"
// @Param        body  body      productRequest  true  "Product record"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Update(c.Request().Context(), id, req.toInput()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Product updated"})
}

// Delete handles DELETE /api/products/:id. Unknown ids succeed.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Product deleted"})
}

// Scan handles GET /api/products/scan/:barcode.
//
// @Summary      Look a product up by barcode
// @Description  Exact match first, then a match ignoring surrounding whitespace.
// @Tags         products
// @Produce      json
// @Param        barcode  path      string  true  "Decoded barcode text"
// @Success      200      {object}  productResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/products/scan/{barcode} [get]
func (h *ProductHandler) Scan(c echo.Context) error {
	res, err := h.service.Scan(c.Request().Context(), c.Param("barcode"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			metrics.BarcodeScansTotal.WithLabelValues("miss").Inc()
		}
		return err
	}

	result := "hit"
	if res.Trimmed {
		result = "trimmed_hit"
	}
	metrics.BarcodeScansTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, productResponse{Data: res.Product})
}

// Sell handles POST /api/products/:id/sell.
//
// @Summary      Mark a product as sold
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Product id"
// @Param        body  body      sellRequest  true  "Sale details"
// @Success      200   {object}  sellResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/products/{id}/sell [post]
func (h *ProductHandler) Sell(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	var req sellRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Sell(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}

	metrics.ProductsSoldTotal.Inc()
	return c.JSON(http.StatusOK, sellResponse{Message: "Product sold", Data: p})
}

// Receipt handles GET /api/products/:id/receipt.
//
// @Summary      Printable bill for a sold product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  receiptResponse
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /api/products/{id}/receipt [get]
func (h *ProductHandler) Receipt(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	r, err := h.service.Receipt(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receiptResponse{Data: toReceiptBody(r)})
}

// statusLabel keeps free-text statuses from inflating metric cardinality.
func statusLabel(status string) string {
	if s := domain.ProductStatus(strings.TrimSpace(status)); s.IsKnown() {
		return string(s)
	}
	return "other"
}
