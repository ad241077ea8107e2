package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/service"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// fail logs err under event and turns it into the matching HTTP error.
// Unknown errors become a 500 without leaking their text.
func fail(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context()).With("handler", event)

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			l.Warn(event+"_error", "status", s.status, "error", err)
			return echo.NewHTTPError(s.status, publicMessage(err, s.err))
		}
	}

	l.Error(event+"_error", "status", http.StatusInternalServerError, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// publicMessage drops the sentinel prefix from the wrapped message.
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != "" {
		return trimmed
	}
	return msg
}

// bind decodes the request and runs the struct validator.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
