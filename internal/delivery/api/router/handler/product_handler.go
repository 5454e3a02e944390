package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/delivery/api/response"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ProductHandlerParams holds dependencies for ProductHandler, injected by Fx.
type ProductHandlerParams struct {
	fx.In

	Catalog usecase.CatalogUsecase
}

// ProductHandler serves the read-only catalog.
type ProductHandler struct {
	catalog usecase.CatalogUsecase
}

// NewProductHandler is the constructor for ProductHandler
func NewProductHandler(params ProductHandlerParams) *ProductHandler {
	return &ProductHandler{catalog: params.Catalog}
}

// ListProducts handles GET /products?q=&page=. A missing or malformed page means the first one.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.catalog.ListProducts(c.Request().Context(), &usecase.ProductQuery{
		Search: c.QueryParam("q"),
		Page:   page,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result)
}

// GetProduct handles GET /products/:id.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, ok := productIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "INVALID_PRODUCT_ID", "Invalid product ID format")
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, product)
}
