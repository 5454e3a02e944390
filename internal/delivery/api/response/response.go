// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"net/http"

	"storefront/internal/delivery/api/validator"
	deliverycontext "storefront/internal/delivery/context"
	domainerrors "storefront/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// CodeInvalidInput marks a body that could not be bound to the request type.
const CodeInvalidInput = "INVALID_INPUT"

type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type MetaInfo struct {
	RequestID string `json:"request_id"`
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}

// exposesDetails reports whether error details may reach the client.
// Server failures and auth rejections never carry them.
func exposesDetails(status int) bool {
	switch {
	case status >= http.StatusInternalServerError:
		return false
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return false
	default:
		return true
	}
}

func Success(c echo.Context, status int, data any) error {
	return c.JSON(status, SuccessResponse{Data: data, Meta: meta(c)})
}

// Error writes the error envelope, dropping details the status must not expose.
func Error(c echo.Context, status int, code, message string, details any) error {
	if !exposesDetails(status) {
		details = nil
	}

	return c.JSON(status, ErrorResponse{
		Error: &ErrorInfo{Code: code, Message: message, Details: details},
		Meta:  meta(c),
	})
}

// AppError writes appErr with the given details, or its own when details is nil.
func AppError(c echo.Context, appErr domainerrors.AppError, details any) error {
	if details == nil && appErr.Details() != "" {
		details = appErr.Details()
	}

	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details)
}

func BadRequest(c echo.Context, code, message string) error {
	return Error(c, http.StatusBadRequest, code, message, nil)
}

func BindingError(c echo.Context, message string) error {
	return BadRequest(c, CodeInvalidInput, message)
}

func NotFound(c echo.Context, code, message string) error {
	return Error(c, http.StatusNotFound, code, message, nil)
}

// ValidationFailed lists each failing field with the rule it broke.
func ValidationFailed(c echo.Context, err error) error {
	var details any
	if fields := validator.FieldErrors(err); fields != nil {
		details = fields
	}

	return AppError(c, domainerrors.ErrValidationFailed, details)
}
