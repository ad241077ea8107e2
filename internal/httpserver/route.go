package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/metrics"
	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service"
)

type Deps struct {
	Repo     *repo.GormRepo
	Session  *authmw.AutoRefresh
	Gatherer prometheus.Gatherer

	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Baskets  *service.BasketService
	Checkout *service.CheckoutService
	Payments *service.PaymentService
	Profiles *service.ProfileService
	Delivery *service.DeliveryService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.Repo.Ping(c.Request().Context()); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	authH := &AuthHandler{Auth: d.Auth, Session: d.Session}
	catalogH := &CatalogHandler{Svc: d.Catalog}
	basketH := &BasketHandler{Baskets: d.Baskets}
	orderH := &OrderHandler{Checkout: d.Checkout, Payments: d.Payments}
	profileH := &ProfileHandler{Profiles: d.Profiles}
	adminH := &AdminHandler{Catalog: d.Catalog, Delivery: d.Delivery, Checkout: d.Checkout}

	requireAuth := d.Session.RequireAuth
	api := e.Group("/api")

	api.POST("/sign-up", authH.SignUp)
	api.POST("/sign-in", authH.SignIn)
	api.POST("/sign-out", authH.SignOut)
	api.POST("/refresh", authH.Refresh)

	api.GET("/categories", catalogH.Categories)
	api.GET("/tags", catalogH.Tags)
	api.GET("/catalog", catalogH.Catalog)
	api.GET("/catalog/search", catalogH.Search)
	api.GET("/product/:id", catalogH.Product)
	api.POST("/product/:id/review", catalogH.AddReview, requireAuth)
	api.GET("/products/popular", catalogH.Popular)
	api.GET("/products/limited", catalogH.Limited)
	api.GET("/sales", catalogH.Sales)
	api.GET("/banners", catalogH.Banners)

	basket := api.Group("/basket", d.Session.BasketSession, d.Session.OptionalAuth)
	basket.GET("", basketH.Get)
	basket.POST("", basketH.Add)
	basket.DELETE("/:id", basketH.Remove)

	orders := api.Group("/orders", requireAuth)
	orders.GET("", orderH.List)
	orders.POST("", orderH.Create)
	orders.GET("/:id", orderH.Get)
	orders.POST("/:id", orderH.Confirm)

	api.POST("/payment/:id", orderH.Pay, requireAuth)

	profile := api.Group("/profile", requireAuth)
	profile.GET("", profileH.Get)
	profile.POST("", profileH.Update)
	profile.POST("/password", profileH.ChangePassword)

	admin := api.Group("/admin", d.Session.RequireAdmin)
	admin.POST("/products", adminH.CreateProduct)
	admin.PATCH("/products/:id", adminH.PatchProduct)
	admin.DELETE("/products/:id", adminH.DeleteProduct)
	admin.PUT("/products/:id/sale", adminH.SetSale)
	admin.POST("/categories", adminH.CreateCategory)
	admin.POST("/tags", adminH.CreateTag)
	admin.GET("/delivery-costs", adminH.DeliveryCosts)
	admin.POST("/delivery-costs", adminH.CreateDeliveryCost)
	admin.POST("/delivery-costs/:id/activate", adminH.ActivateDeliveryCost)
	admin.GET("/orders", adminH.Orders)
	admin.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)
}
