package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/store-api/internal/core/ports"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List handles GET /api/v1/products.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=[]productResponse}
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "All products", toProductResponses(products))
}

// Get handles GET /api/v1/products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id (UUID)"
// @Success      200  {object}  Envelope{data=productResponse}
// @Failure      400  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product found", toProductResponse(product))
}

// Create handles POST /api/v1/products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      productRequest  true  "Product"
// @Success      201   {object}  Envelope{data=productResponse}
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Created product", toProductResponse(product))
}

// Update handles PUT /api/v1/products/:id.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Product id (UUID)"
// @Param        body  body      productRequest  true  "Product"
// @Success      200   {object}  Envelope{data=productResponse}
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.service.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Updated product", toProductResponse(product))
}

// Delete handles DELETE /api/v1/products/:id.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id (UUID)"
// @Success      202  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Failure      409  {object}  Envelope
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, "Deleted product", nil)
}
