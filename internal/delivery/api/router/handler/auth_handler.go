package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	Workspaces usecase.WorkspaceManager
	Logger     *slog.Logger
}

// AuthHandler serves password sign-up, sign-in and the session.
type AuthHandler struct {
	workspaces usecase.WorkspaceManager
	logger     *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		workspaces: params.Workspaces,
		logger:     params.Logger,
	}
}

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the sign-in form
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest renames the signed-in user
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required"`
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	var session *entity.Session
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		session, err = ws.Identity().Register(ctx, &usecase.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.log(c).Info("Account registered", slog.String("user_id", session.ID))

	return response.Success(c, http.StatusCreated, session)
}

// Login signs in with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	var session *entity.Session
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		session, err = ws.Identity().Login(ctx, &usecase.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		})

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, session)
}

// Logout ends the session. Signing out twice is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	_ = inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		ws.Identity().Logout(ctx)

		return nil
	})

	return response.Success(c, http.StatusOK, map[string]string{"message": "Signed out"})
}

// GetSession returns the signed-in user, or null data when signed out.
func (h *AuthHandler) GetSession(c echo.Context) error {
	var session *entity.Session
	_ = inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		session = ws.Identity().CurrentSession(ctx)

		return nil
	})

	return response.Success(c, http.StatusOK, session)
}

// UpdateProfile renames the signed-in user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid profile input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	var session *entity.Session
	_ = inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		session = ws.Identity().UpdateName(ctx, req.Name)

		return nil
	})
	if session == nil {
		return errors.WithStack(domainerrors.ErrAuthenticationRequired)
	}

	return response.Success(c, http.StatusOK, session)
}

func (h *AuthHandler) log(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger)
}
