package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"todo-api/internal/listeners"
	"todo-api/internal/repositories"
	"todo-api/internal/routes"
	"todo-api/migrations"
	"todo-api/pkg/config"
	"todo-api/pkg/customvalidator"
	"todo-api/pkg/database/postgresql"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/eventbus"
	applogger "todo-api/pkg/logger"
	"todo-api/pkg/middleware"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
	"todo-api/seeders"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := applogger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = utils.NewHTTPErrorHandler(logger)

	metrics := middleware.NewMetrics()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				_ = utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error", err, nil), logger)
			}
			return err
		},
	}))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.InjectLogger(logger))
	e.Use(middleware.RequestLogger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecureHeaders(cfg.Server.Production, logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))
	e.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("failed to register validation rules", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	userRepo, todoRepo, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	cacheRepo, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	if cfg.Seed.AdminPassword != "" {
		if err := seeders.SeedSuperAdmin(ctx, userRepo, cfg.Seed, logger); err != nil {
			logger.Fatal("failed to seed super admin", zap.Error(err))
		}
	}

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	bus := eventbus.New(logger)
	listeners.NewAuditListener(logger.Named("audit")).Register(bus)

	routes.InitRouter(e, routes.Deps{
		UserRepo: userRepo,
		TodoRepo: todoRepo,
		Cache:    cacheRepo,
		JWT:      jwtSvc,
		Events:   bus,
		Config:   cfg,
		Loggers:  routes.NewLoggers(logger),
	})
	e.GET("/metrics", metrics.Handler())

	go func() {
		logger.Info("server starting", zap.String("address", cfg.Server.Address()), zap.String("store", cfg.DB.Client))
		if err := e.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := bus.Drain(shutdownCtx); err != nil {
		logger.Warn("event listeners still running at exit", zap.Error(err))
	}
}

// openStore picks the user and todo stores for DB_CLIENT. The postgres store
// is migrated before use.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.UserRepositoryInterface, repositories.TodoRepositoryInterface, func()) {
	if cfg.DB.Client != "postgres" {
		store := repositories.NewMemoryStore()
		return repositories.NewMemoryUserRepository(store), repositories.NewMemoryTodoRepository(store), func() {}
	}

	pool, err := postgresql.ConnectDB(ctx, cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.String("host", cfg.DB.Host), zap.Error(err))
	}
	if err := migrations.Up(ctx, pool); err != nil {
		pool.Close()
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	userRepo := repositories.NewUserRepository(pool, repositories.NewTxManager(pool), logger.Named("user"))
	return userRepo, repositories.NewTodoRepository(pool, logger.Named("todo")), pool.Close
}

// openCache connects to redis when REDIS_ADDRESS is set; otherwise access
// lookups always hit the store.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.CacheRepositoryInterface, func()) {
	if cfg.Redis.Address == "" {
		logger.Info("REDIS_ADDRESS not set, permission cache disabled")
		return repositories.NewNoopCacheRepository(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("address", cfg.Redis.Address), zap.Error(err))
	}
	return repositories.NewRedisCacheRepository(client), func() { _ = client.Close() }
}
