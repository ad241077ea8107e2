package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ozonilberries/internal/db/dbtest"
	"github.com/Skotchmaster/ozonilberries/internal/domain"
	"github.com/Skotchmaster/ozonilberries/internal/metrics"
	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

type testServer struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	r := &repo.GormRepo{DB: dbtest.Open(t)}
	reg := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckout(reg)

	baskets := &service.BasketService{Repo: r}
	auth := &service.AuthService{
		Repo:          r,
		Baskets:       baskets,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	e := echo.New()
	e.Validator = transport.NewValidator()
	Register(e, &Deps{
		Repo:     r,
		Session:  authmw.NewAutoRefresh(auth.JWTSecret, auth, false),
		Gatherer: reg,
		Auth:     auth,
		Catalog:  &service.CatalogService{Repo: r},
		Baskets:  baskets,
		Checkout: &service.CheckoutService{Repo: r, Metrics: checkoutMetrics},
		Payments: &service.PaymentService{Repo: r, Metrics: checkoutMetrics},
		Profiles: &service.ProfileService{Repo: r},
		Delivery: &service.DeliveryService{Repo: r},
	})
	return &testServer{e: e, repo: r}
}

// client keeps the cookies a browser would.
type client struct {
	t       *testing.T
	srv     *testServer
	cookies map[string]*http.Cookie
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	c.srv.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func confirmBody(fullName string) map[string]any {
	return map[string]any{
		"fullName":     fullName,
		"email":        "ivan@example.com",
		"phone":        "89991234567",
		"deliveryType": "standard",
		"paymentType":  "card",
		"city":         "Moscow",
		"address":      "Tverskaya 1",
	}
}

func card(number any) map[string]any {
	return map[string]any{"number": number, "name": "IVAN IVANOV", "month": 5, "year": "2099", "code": "123"}
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	tea := &models.Product{Title: "tea", Price: decimal.RequireFromString("60.00"), Count: 5}
	require.NoError(t, srv.repo.DB.Create(tea).Error)
	dc := &models.DeliveryCost{
		DeliveryPrice:        decimal.RequireFromString("20"),
		ExpressDeliveryPrice: decimal.RequireFromString("30"),
		FreeDeliveryBorder:   decimal.RequireFromString("100"),
	}
	require.NoError(t, srv.repo.DB.Create(dc).Error)
	require.NoError(t, srv.repo.DB.Model(dc).Update("is_active", true).Error)

	c := srv.client(t)

	// anonymous basket
	rec := c.do(http.MethodPost, "/api/basket", map[string]any{"product_id": tea.ID, "count": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	basket := decode[transport.BasketResponse](t, rec)
	assert.Equal(t, "120.00", basket.TotalCost)
	require.Contains(t, c.cookies, "basketSession")

	rec = c.do(http.MethodPost, "/api/basket", map[string]any{"product_id": tea.ID, "count": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// signing up moves the anonymous basket to the new user
	rec = c.do(http.MethodPost, "/api/sign-up", map[string]any{"name": "Ivan", "username": "ivan", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, c.cookies, "accessToken")

	rec = c.do(http.MethodGet, "/api/basket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	basket = decode[transport.BasketResponse](t, rec)
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 2, basket.Items[0].Count)

	rec = c.do(http.MethodPost, "/api/orders", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[transport.OrderResponse](t, rec)
	assert.Equal(t, models.OrderStatusConfirmRequired, order.Status)
	orderPath := "/api/orders/" + strconv.FormatUint(uint64(order.ID), 10)

	rec = c.do(http.MethodPost, orderPath, confirmBody("Ivanov Ivan"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := confirmBody("Ivanov Ivan Ivanovich")
	delete(body, "city")
	rec = c.do(http.MethodPost, orderPath, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "city is required")

	rec = c.do(http.MethodPost, orderPath, confirmBody("Ivanov Ivan Ivanovich"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order = decode[transport.OrderResponse](t, rec)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "120.00", order.TotalCost)
	require.Len(t, order.Items, 1)

	// the confirmation filled the profile
	rec = c.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ivanov Ivan Ivanovich", decode[transport.ProfileResponse](t, rec).FullName)

	payPath := "/api/payment/" + strconv.FormatUint(uint64(order.ID), 10)
	rec = c.do(http.MethodPost, payPath, card(1235))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	declined := decode[struct {
		Message string                  `json:"message"`
		Order   transport.OrderResponse `json:"order"`
	}](t, rec)
	assert.Equal(t, domain.MsgOddNumber, declined.Message)
	assert.Equal(t, models.OrderStatusConfirmed, declined.Order.Status)

	rec = c.do(http.MethodPost, payPath, card("1234"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[transport.OrderResponse](t, rec)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.Payment)
	assert.True(t, paid.Payment.IsPaid)

	// paid orders drop out of the caller's list
	rec = c.do(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]transport.OrderResponse](t, rec))

	rec = c.do(http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderAccessCheckedBeforeBody(t *testing.T) {
	srv := newTestServer(t)
	owner := &models.User{Username: "ivan", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, srv.repo.DB.Create(owner).Error)
	pending := &models.Order{UserID: owner.ID, Status: models.OrderStatusConfirmRequired}
	confirmed := &models.Order{UserID: owner.ID, Status: models.OrderStatusConfirmed}
	require.NoError(t, srv.repo.DB.Create(pending).Error)
	require.NoError(t, srv.repo.DB.Create(confirmed).Error)

	c := srv.client(t)
	rec := c.do(http.MethodPost, "/api/sign-up", map[string]any{"username": "petr", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	path := func(prefix string, id uint) string {
		return prefix + strconv.FormatUint(uint64(id), 10)
	}
	empty := map[string]any{}

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "confirm foreign order", path: path("/api/orders/", pending.ID), want: http.StatusForbidden},
		{name: "confirm order in wrong status", path: path("/api/orders/", confirmed.ID), want: http.StatusNotFound},
		{name: "confirm missing order", path: "/api/orders/999", want: http.StatusNotFound},
		{name: "pay foreign order", path: path("/api/payment/", confirmed.ID), want: http.StatusForbidden},
		{name: "pay order in wrong status", path: path("/api/payment/", pending.ID), want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, tt.path, empty)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	rec := c.do(http.MethodPost, "/api/sign-up", map[string]any{"username": "ivan", "password": "12345678"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/sign-up", map[string]any{"username": "ivan", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = c.do(http.MethodPost, "/api/sign-up", map[string]any{"username": "ivan", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/sign-out", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, c.cookies, "accessToken")

	rec = c.do(http.MethodPost, "/api/sign-in", map[string]any{"username": "ivan", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = c.do(http.MethodPost, "/api/sign-in", map[string]any{"username": "ivan", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	rec := c.do(http.MethodPost, "/api/sign-up", map[string]any{"username": "root", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, srv.repo.DB.Model(&models.User{}).Where("username = ?", "root").Update("role", models.RoleAdmin).Error)
	// the role is read on refresh
	delete(c.cookies, "accessToken")
	rec = c.do(http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/api/admin/products", map[string]any{"title": "tea", "price": "10.00", "count": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[transport.ProductDetail](t, rec)
	assert.Equal(t, "10.00", product.Price)

	productPath := "/api/admin/products/" + strconv.FormatUint(uint64(product.ID), 10)
	rec = c.do(http.MethodPut, productPath+"/sale", map[string]any{"discount": 10, "dateFrom": "2020-01-01", "dateTo": "2099-01-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "9.00", decode[transport.ProductDetail](t, rec).SalePrice)

	rec = c.do(http.MethodGet, "/api/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decode[listResponse[transport.SaleItem]](t, rec)
	assert.EqualValues(t, 1, sales.Meta.Total)

	rec = c.do(http.MethodPost, "/api/admin/delivery-costs", map[string]any{"delivery_price": "20", "express_delivery_price": "30", "free_delivery_border": "100", "activate": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodDelete, productPath, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodGet, "/api/product/"+strconv.FormatUint(uint64(product.ID), 10), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/catalog?minPrice=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health/ready", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil).Code)
}
