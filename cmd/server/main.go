package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/org-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/org-directory/internal/platform/config"
	pg "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	"github.com/ogurasousui/org-directory/internal/platform/logger"
	"github.com/ogurasousui/org-directory/internal/platform/server"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	dbPool, err := pg.NewPool(ctx, cfg.Database, lg)
	if err != nil {
		lg.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	departments := postgres.NewDepartmentRepository(pg.NewPoolSessionFactory(dbPool), lg)
	probe := func(ctx context.Context) error {
		_, err := departments.FindPage(ctx, 0, 1)
		return err
	}

	grpcServer := server.New(cfg.Server.ListenAddr, probe, cfg.Server.HealthCheckInterval, lg)

	if err := grpcServer.Run(ctx); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}

	lg.Info("server stopped")
}
