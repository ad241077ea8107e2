package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "test")

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/product/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/missing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })

	for _, p := range []string{"/api/product/1", "/api/product/2", "/api/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/product/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/missing", "404")))
}

func TestCheckout_NilSafe(t *testing.T) {
	var c *Checkout
	c.Confirmation("ok")
	c.Payment("paid")

	reg := prometheus.NewRegistry()
	c = NewCheckout(reg)
	c.Payment("paid")
	c.Payment("declined")
	c.Payment("paid")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Payments.WithLabelValues("paid")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop_payments_total")
}
