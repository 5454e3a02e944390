// Package handler contains the HTTP handlers of the storefront API.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// inWorkspace runs fn against the workspace of the request's client scope.
func inWorkspace(c echo.Context, manager usecase.WorkspaceManager, fn func(ctx context.Context, ws usecase.Workspace) error) error {
	ctx := c.Request().Context()

	return manager.Execute(ctx, deliverycontext.GetClientScope(c), func(ws usecase.Workspace) error {
		return fn(ctx, ws)
	})
}

// productIDParam reads a positive numeric product id from the path.
func productIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
