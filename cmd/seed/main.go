package main

import (
	"context"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"go.uber.org/zap"
	"log"
	"os"
	"time"
)

// Usage: seed [export.json]
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName+"-seed")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	path := "seed.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("open export", zap.String("path", path), zap.Error(err))
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	st, err := catalog.Import(ctx, &catalog.Repo{DB: db}, f)
	if err != nil {
		logger.Fatal("import", zap.Error(err))
	}
	for _, id := range st.Skipped {
		logger.Warn("record skipped", zap.String("record_id", id))
	}

	// listings cached by a running api are stale now
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := &redisx.Cache{RDB: rdb, Log: logger}
	if err := cache.Invalidate(ctx, redisx.TagAllProducts, redisx.TagProducts, redisx.TagCategories); err != nil {
		logger.Warn("cache invalidation failed", zap.Error(err))
	}

	logger.Info("import done",
		zap.Int("categories", st.Categories),
		zap.Int("products", st.Products),
		zap.Int("variants", st.Variants),
		zap.Int("skipped", len(st.Skipped)))
}
