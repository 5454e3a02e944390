package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/delivery/api/validator"
	deliverycontext "storefront/internal/delivery/context"
	domainerrors "storefront/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	deliverycontext.SetRequestID(c, "req-42")

	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)

	return body
}

func TestSuccess(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, Success(c, http.StatusCreated, map[string]int{"count": 2}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"count":2},"meta":{"request_id":"req-42"}}`, rec.Body.String())
}

func TestError_DetailsVisibility(t *testing.T) {
	tests := []struct {
		status  int
		visible bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusNotFound, true},
		{http.StatusConflict, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, rec := newContext()
			require.NoError(t, Error(c, tt.status, "CODE", "message", "extra"))

			body := decodeError(t, rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "req-42", body.Meta.RequestID)
			if tt.visible {
				assert.Equal(t, "extra", body.Error.Details)
			} else {
				assert.Nil(t, body.Error.Details)
			}
		})
	}
}

func TestAppError(t *testing.T) {
	c, rec := newContext()
	appErr := domainerrors.NewBaseError(http.StatusConflict, "ORDER_NOT_CANCELLABLE", "Order can no longer be cancelled.", "status is Shipped")
	require.NoError(t, AppError(c, appErr, nil))

	body := decodeError(t, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ORDER_NOT_CANCELLABLE", body.Error.Code)
	assert.Equal(t, "status is Shipped", body.Error.Details)
}

func TestBindingError(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, BindingError(c, "Invalid cart input"))

	body := decodeError(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidInput, body.Error.Code)
	assert.Equal(t, "Invalid cart input", body.Error.Message)
}

func TestValidationFailed(t *testing.T) {
	type request struct {
		Pin string `json:"pin" validate:"required,pincode"`
	}

	err := validator.New().Validate(&request{Pin: "12ab"})
	require.Error(t, err)

	c, rec := newContext()
	require.NoError(t, ValidationFailed(c, err))

	body := decodeError(t, rec)
	assert.Equal(t, domainerrors.ErrValidationFailed.ErrorCode(), body.Error.Code)
	assert.Equal(t, map[string]any{"pin": "pincode"}, body.Error.Details)
}
