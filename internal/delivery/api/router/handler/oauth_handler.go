package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/infra/auth/google"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// OAuthHandlerParams holds dependencies for OAuthHandler, injected by Fx.
type OAuthHandlerParams struct {
	fx.In

	Workspaces usecase.WorkspaceManager
	Logger     *slog.Logger
}

// OAuthHandler serves Google sign-in, real and demo.
type OAuthHandler struct {
	workspaces usecase.WorkspaceManager
	logger     *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler
func NewOAuthHandler(params OAuthHandlerParams) *OAuthHandler {
	return &OAuthHandler{
		workspaces: params.Workspaces,
		logger:     params.Logger,
	}
}

// GoogleCallbackRequest carries the credential returned by Google Identity Services
type GoogleCallbackRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// DemoLoginRequest picks one of the demo Google accounts
type DemoLoginRequest struct {
	Sub string `json:"sub" validate:"required"`
}

// GoogleCallback signs in with a Google ID token credential.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	var req GoogleCallbackRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid Google callback input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	var session *entity.Session
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		session, err = ws.Identity().LoginWithCredential(ctx, req.Credential)

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, session)
}

// DemoAccounts lists the accounts offered by the demo sign-in picker.
func (h *OAuthHandler) DemoAccounts(c echo.Context) error {
	return response.Success(c, http.StatusOK, google.DemoAccounts())
}

// DemoLogin signs in as one of the demo Google accounts.
func (h *OAuthHandler) DemoLogin(c echo.Context) error {
	var req DemoLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid demo sign-in input")
	}

	if err := c.Validate(&req); err != nil {
		return response.ValidationFailed(c, err)
	}

	account, ok := google.FindDemoAccount(req.Sub)
	if !ok {
		return response.NotFound(c, "DEMO_ACCOUNT_NOT_FOUND", "Unknown demo account")
	}

	var session *entity.Session
	err := inWorkspace(c, h.workspaces, func(ctx context.Context, ws usecase.Workspace) error {
		var err error
		session, err = ws.Identity().LoginWithExternalIdentity(ctx, account.Profile())

		return err
	})
	if err != nil {
		return errors.WithStack(err)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("Demo account signed in", slog.String("sub", account.Sub))

	return response.Success(c, http.StatusOK, session)
}
