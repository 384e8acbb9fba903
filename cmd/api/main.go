package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/wind-smp/market-backend/internal/cache"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/db"
	"github.com/wind-smp/market-backend/internal/logger"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	conn, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}
	if err := conn.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Listing{},
		&model.PurchaseRequest{},
		&model.Review{},
	); err != nil {
		zl.Fatal("auto migrate failed", zap.Error(err))
	}

	listCache := cache.NewRequestListCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = listCache.Close() }()

	srv := server.New(cfg, zl, conn, listCache)
	addr := ":" + cfg.Port
	zl.Info("starting server", zap.String("addr", addr))
	if err := srv.Start(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
