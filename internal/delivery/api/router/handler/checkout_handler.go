package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// CheckoutHandlerParams holds dependencies for CheckoutHandler, injected by Fx.
type CheckoutHandlerParams struct {
	fx.In

	Workspaces usecase.WorkspaceManager
	Logger     *slog.Logger
}

// CheckoutHandler places orders from the cart.
type CheckoutHandler struct {
	workspaces usecase.WorkspaceManager
	logger     *slog.Logger
}

// NewCheckoutHandler is the constructor for CheckoutHandler
func NewCheckoutHandler(params CheckoutHandlerParams) *CheckoutHandler {
	return &CheckoutHandler{
		workspaces: params.Workspaces,
		logger:     params.Logger,
	}
}

// AddressRequest is the delivery address form
type AddressRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required,in_mobile"`
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pin      string `json:"pin" validate:"required,pincode"`
	Type     string `json:"type" validate:"required,oneof=Home Work Other"`
}

// CheckoutRequest carries the delivery address
type CheckoutRequest struct {
	Address AddressRequest `json:"address"`
}

func (r *AddressRequest) toEntity() *entity.Address {
	return &entity.Address{
		FullName: strings.TrimSpace(r.FullName),
		Phone:    r.Phone,
		Line1:    strings.TrimSpace(r.Line1),
		Line2:    strings.TrimSpace(r.Line2),
		City:     strings.TrimSpace(r.City),
		State:    strings.TrimSpace(r.State),
		Pin:      r.Pin,
		Type:     entity.AddressType(r.Type),
	}
}

// Checkout turns the cart into an order for the signed-in user. The session is
// checked before the address, so signed-out callers always get 401.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var (
		order       *entity.Order
		bindErr     error
		validateErr error
	)
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		if ws.Identity().CurrentSession(ctx) == nil {
			return domainerrors.ErrAuthenticationRequired
		}

		var req CheckoutRequest
		if bindErr = c.Bind(&req); bindErr != nil {
			return nil
		}
		if validateErr = c.Validate(&req); validateErr != nil {
			return nil
		}

		var err error
		order, err = ws.Checkout().Checkout(ctx, &usecase.CheckoutInput{Address: req.Address.toEntity()})

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if bindErr != nil {
		return response.BindingError(c, "Invalid checkout input")
	}
	if validateErr != nil {
		return response.ValidationFailed(c, validateErr)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("Order placed", slog.String("order_id", order.ID), slog.String("total", order.Total.StringFixed(2)))

	return response.Success(c, http.StatusCreated, order)
}
