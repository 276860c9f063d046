package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"todo-api/internal/repositories"
	"todo-api/migrations"
	"todo-api/pkg/config"
	"todo-api/pkg/database/postgresql"
	applogger "todo-api/pkg/logger"
	"todo-api/seeders"
)

func main() {
	runAdmin := flag.Bool("admin", false, "create the super admin from SEED_ADMIN_*")
	runDemo := flag.Bool("demo", false, "create a demo user with a few todos")
	runAll := flag.Bool("all", false, "run every seeder")
	flag.Parse()

	if !*runAdmin && !*runDemo && !*runAll {
		log.Println("no seeder selected, available flags:")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := applogger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DB.Client != "postgres" {
		logger.Fatal("seeding needs DB_CLIENT=postgres", zap.String("client", cfg.DB.Client))
	}

	ctx := context.Background()
	pool, err := postgresql.ConnectDB(ctx, cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Up(ctx, pool); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(pool, repositories.NewTxManager(pool), logger)
	todoRepo := repositories.NewTodoRepository(pool, logger)

	if *runAll || *runAdmin {
		if err := seeders.SeedSuperAdmin(ctx, userRepo, cfg.Seed, logger); err != nil {
			logger.Fatal("super admin seeder failed", zap.Error(err))
		}
	}
	if *runAll || *runDemo {
		if err := seeders.SeedDemoData(ctx, userRepo, todoRepo, cfg.Seed, logger); err != nil {
			logger.Fatal("demo seeder failed", zap.Error(err))
		}
	}
	logger.Info("seeding finished")
}
