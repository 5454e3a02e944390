package handler

import (
	"context"
	"net/http"

	"storefront/internal/delivery/api/response"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// OrderHandlerParams holds dependencies for OrderHandler, injected by Fx.
type OrderHandlerParams struct {
	fx.In

	Workspaces    usecase.WorkspaceManager
	QRCodeService service.QRCodeService
}

// OrderHandler serves the signed-in user's order history.
type OrderHandler struct {
	workspaces    usecase.WorkspaceManager
	qrCodeService service.QRCodeService
}

// NewOrderHandler is the constructor for OrderHandler
func NewOrderHandler(params OrderHandlerParams) *OrderHandler {
	return &OrderHandler{
		workspaces:    params.Workspaces,
		qrCodeService: params.QRCodeService,
	}
}

// ListOrders returns the user's orders, most recent first. Signed out, the list is empty.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders := []entity.Order{}
	_ = inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		if listed := ws.Orders().ListOrders(ctx); listed != nil {
			orders = listed
		}

		return nil
	})

	return response.Success(c, http.StatusOK, orders)
}

// GetOrder returns one order with its current status.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.find(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, order)
}

// CancelOrder cancels an order that has not shipped yet.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	var order *entity.Order
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		order, err = ws.Orders().CancelOrder(ctx, c.Param("id"))

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, order)
}

// GetOrderQR renders the order's receipt QR code as a PNG.
func (h *OrderHandler) GetOrderQR(c echo.Context) error {
	order, err := h.find(c)
	if err != nil {
		return errors.WithStack(err)
	}

	png, err := h.qrCodeService.GenerateOrderQR(order.ID)
	if err != nil {
		return errors.Wrap(err, "failed to generate order QR")
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *OrderHandler) find(c echo.Context) (*entity.Order, error) {
	var order *entity.Order
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		order, err = ws.Orders().GetOrder(ctx, c.Param("id"))

		return err
	})

	return order, err
}
