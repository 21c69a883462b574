package main

import (
	"context"
	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/notify"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/tracing"
	"go.uber.org/zap"
	"log"
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
	service := cfg.ServiceName + "-notifier"
	logger, err := logx.New(cfg.LogLevel, service)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	tracing.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &notify.Service{
		Mailer:      notify.NewMailer(cfg.ResendAPIKey, cfg.MailFrom),
		Redis:       rdb,
		Log:         logger,
		ServiceName: service,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderPlaced, cfg.NotifierWorkers, logger)

	go func() {
		logger.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup),
			zap.String("topic", orders.TopicOrderPlaced),
			zap.Int("workers", cfg.NotifierWorkers))
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
