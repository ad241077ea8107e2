package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/ozonilberries/internal/config"
	"github.com/Skotchmaster/ozonilberries/internal/db"
	"github.com/Skotchmaster/ozonilberries/internal/es"
	"github.com/Skotchmaster/ozonilberries/internal/httpserver"
	"github.com/Skotchmaster/ozonilberries/internal/logging"
	"github.com/Skotchmaster/ozonilberries/internal/metrics"
	authmw "github.com/Skotchmaster/ozonilberries/internal/middleware/auth"
	"github.com/Skotchmaster/ozonilberries/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/ozonilberries/internal/middleware/logging"
	"github.com/Skotchmaster/ozonilberries/internal/mykafka"
	"github.com/Skotchmaster/ozonilberries/internal/redisx"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/Skotchmaster/ozonilberries/internal/service"
	"github.com/Skotchmaster/ozonilberries/internal/service/search"
	"github.com/Skotchmaster/ozonilberries/internal/transport"
)

func main() {
	cfg := config.Load()
	cfg.MustValid()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	r := &repo.GormRepo{DB: gdb}

	var events service.EventPublisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var searcher service.ProductSearcher
	if cfg.ESURL != "" {
		client, err := es.NewClient(es.Options{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			searcher = &search.Index{ES: client, Name: cfg.ESIndex}
		}
	}

	var cache *redisx.Cache
	if cfg.RedisAddr != "" {
		cache = redisx.NewCache(redisx.New(cfg.RedisAddr), cfg.CacheTTL)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			logger.Warn("redis_unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		pingCancel()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, cfg.ServiceName)
	checkoutMetrics := metrics.NewCheckout(reg)

	baskets := &service.BasketService{Repo: r, Events: events}
	auth := &service.AuthService{
		Repo:          r,
		Baskets:       baskets,
		Events:        events,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = transport.NewValidator()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(serverMetrics.Middleware())
	e.Use(echomw.CORS())
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:            cfg.CookieSecure,
			EnforceSameOrigin: true,
			SkipPaths:         []string{"/metrics", "/health/live", "/health/ready"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		Repo:     r,
		Session:  authmw.NewAutoRefresh(cfg.JWTAccessSecret, auth, cfg.CookieSecure),
		Gatherer: reg,
		Auth:     auth,
		Catalog:  &service.CatalogService{Repo: r, Cache: cache, Search: searcher, Events: events},
		Baskets:  baskets,
		Checkout: &service.CheckoutService{Repo: r, Events: events, Metrics: checkoutMetrics},
		Payments: &service.PaymentService{Repo: r, Events: events, Metrics: checkoutMetrics},
		Profiles: &service.ProfileService{Repo: r},
		Delivery: &service.DeliveryService{Repo: r},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Error("redis_close_error", "error", err)
	}
	logger.Info("shutdown_complete")
}
