package handler

import (
	"context"
	"net/http"

	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/entity"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// CartHandlerParams holds dependencies for CartHandler, injected by Fx.
type CartHandlerParams struct {
	fx.In

	Workspaces usecase.WorkspaceManager
	Catalog    usecase.CatalogUsecase
}

// CartHandler serves the cart of the client scope.
type CartHandler struct {
	workspaces usecase.WorkspaceManager
	catalog    usecase.CatalogUsecase
}

// NewCartHandler is the constructor for CartHandler
func NewCartHandler(params CartHandlerParams) *CartHandler {
	return &CartHandler{
		workspaces: params.Workspaces,
		catalog:    params.Catalog,
	}
}

// AddItemRequest adds one unit of a catalog product
type AddItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// GetCart returns the cart with its totals.
func (h *CartHandler) GetCart(c echo.Context) error {
	return h.respond(c, func(ctx context.Context, cart usecase.CartUsecase) entity.Cart {
		return cart.Snapshot(ctx)
	})
}

// AddItem resolves the product through the catalog so the stock ceiling is the server's.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid cart input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, func(ctx context.Context, cart usecase.CartUsecase) entity.Cart {
		return cart.AddOrIncrement(ctx, product)
	})
}

// DecrementItem takes one unit off a line, dropping it at zero.
func (h *CartHandler) DecrementItem(c echo.Context) error {
	id, ok := productIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "INVALID_PRODUCT_ID", "Invalid product ID format")
	}

	return h.respond(c, func(ctx context.Context, cart usecase.CartUsecase) entity.Cart {
		return cart.Decrement(ctx, id)
	})
}

// RemoveItem drops a line whatever its quantity.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, ok := productIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "INVALID_PRODUCT_ID", "Invalid product ID format")
	}

	return h.respond(c, func(ctx context.Context, cart usecase.CartUsecase) entity.Cart {
		return cart.Remove(ctx, id)
	})
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c echo.Context) error {
	return h.respond(c, func(ctx context.Context, cart usecase.CartUsecase) entity.Cart {
		return cart.Clear(ctx)
	})
}

func (h *CartHandler) respond(c echo.Context, op func(ctx context.Context, cart usecase.CartUsecase) entity.Cart) error {
	var result entity.Cart
	_ = inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		result = op(ctx, ws.Cart())

		return nil
	})

	return response.Success(c, http.StatusOK, result)
}
