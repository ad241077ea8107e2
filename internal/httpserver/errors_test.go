package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/service"
)

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: fmt.Errorf("%w: basket is empty", service.ErrValidation), status: http.StatusBadRequest, message: "basket is empty"},
		{name: "delivery config", err: fmt.Errorf("%w: %w", service.ErrValidation, &domain.DeliveryConfigError{Active: 0}), status: http.StatusBadRequest},
		{name: "unauthorized", err: fmt.Errorf("%w: bad credentials", service.ErrUnauthorized), status: http.StatusUnauthorized, message: "bad credentials"},
		{name: "forbidden", err: fmt.Errorf("%w: not your order", service.ErrForbidden), status: http.StatusForbidden, message: "not your order"},
		{name: "not found", err: fmt.Errorf("%w: order", service.ErrNotFound), status: http.StatusNotFound, message: "order"},
		{name: "conflict", err: fmt.Errorf("%w: user already exists", service.ErrConflict), status: http.StatusConflict, message: "user already exists"},
		{name: "unknown", err: errors.New("connection reset"), status: http.StatusInternalServerError, message: "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			err := fail(c, "test", tt.err)

			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.status, he.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, he.Message)
			}
		})
	}
}
