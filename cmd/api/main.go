package main

import (
	"context"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/notify"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/search"
	"github.com/ariefcatur/go-storefront/internal/stock"
	"github.com/ariefcatur/go-storefront/internal/tracing"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	tracing.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Catalog, search, carts
	cat := &catalog.Service{
		Source:    &catalog.Repo{DB: db},
		Cache:     &redisx.Cache{RDB: rdb, Log: logger},
		ListTTL:   cfg.CatalogCacheTTL,
		SearchTTL: cfg.SearchCacheTTL,
	}
	carts := &cart.Store{RDB: rdb, TTL: cfg.CartTTL}
	orderRepo := &orders.Repo{DB: db}

	// Notifier: direct Resend or OrderPlaced event for cmd/notifier
	var notifier checkout.Notifier
	var prod *kafkax.Producer
	switch cfg.NotifyMode {
	case config.NotifyKafka:
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, logger)
		prod.Start(ctx)
		notifier = &notify.EventNotifier{Producer: prod, ServiceName: cfg.ServiceName}
	default:
		notifier = notify.NewMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}

	co := &checkout.Service{
		Stock:    &stock.Repo{DB: db},
		Orders:   orderRepo,
		Catalog:  cat,
		Notifier: notifier,
		Redis:    rdb,
		Log:      logger.Named("checkout"),
		Timeout:  3 * cfg.RequestTimeout,
	}

	router := httpx.NewRouter(logger)
	(&httpx.CatalogHandler{Catalog: cat, Log: logger}).Register(router)
	(&httpx.SearchHandler{Search: &search.Service{Catalog: cat}, Log: logger}).Register(router)
	(&httpx.CartHandler{Carts: carts, Catalog: cat, Checkout: co, Log: logger}).Register(router)
	(&httpx.OrdersHandler{Checkout: co, Orders: orderRepo, Redis: rdb, Log: logger}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("notify_mode", cfg.NotifyMode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // close inbox; the writer flushes and closes
		prod.WaitClosed() // drain
	}
	cancel()
}
