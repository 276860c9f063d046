package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/repositories"
	"todo-api/internal/services"
	"todo-api/pkg/config"
	"todo-api/pkg/eventbus"
	"todo-api/pkg/middleware"
	"todo-api/pkg/service"
)

type Loggers struct {
	Main *zap.Logger
	Auth *zap.Logger
	User *zap.Logger
	Todo *zap.Logger
}

// NewLoggers names one child logger per area.
func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main: base,
		Auth: base.Named("auth"),
		User: base.Named("user"),
		Todo: base.Named("todo"),
	}
}

// Deps is everything the HTTP surface needs from main.
type Deps struct {
	UserRepo repositories.UserRepositoryInterface
	TodoRepo repositories.TodoRepositoryInterface
	Cache    repositories.CacheRepositoryInterface
	JWT      service.JWTService
	Events   *eventbus.Bus
	Config   *config.Config
	Loggers  *Loggers
}

func InitRouter(e *echo.Echo, deps Deps) {
	loggers := deps.Loggers
	loggers.Main.Info("InitRouter: registering routes")

	authPermissionService := services.NewAuthPermissionService(
		deps.UserRepo, deps.Cache, loggers.Auth, deps.Config.Redis.PermissionCacheTTL)
	authMW := middleware.NewAuthMiddleware(deps.JWT, authPermissionService, deps.Config.JWT.CookieSecure, loggers.Auth)

	authService := services.NewAuthService(deps.UserRepo, authPermissionService, deps.JWT, loggers.Auth)
	todoService := services.NewTodoService(deps.TodoRepo, loggers.Todo)
	userService := services.NewUserService(deps.UserRepo, authPermissionService, deps.Events, loggers.User)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "TODO CRUD")
	})

	runAuthRouter(e, authService, deps.JWT, deps.Config.JWT.CookieSecure, loggers.Auth, authMW)
	runTodoRouter(e, todoService, loggers.Todo, authMW)
	runUserRouter(e, userService, loggers.User, authMW)

	loggers.Main.Info("InitRouter: routes registered")
}
