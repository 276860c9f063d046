package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/authz"
	"todo-api/internal/controllers"
	"todo-api/internal/services"
	"todo-api/pkg/middleware"
)

func runTodoRouter(e *echo.Echo, todoService services.TodoServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	todoCtrl := controllers.NewTodoController(todoService, logger)

	todos := e.Group("/todos", authMW.Auth)
	todos.GET("", todoCtrl.GetTodos, authMW.Authorize(authz.UsersGet))
	todos.POST("", todoCtrl.CreateTodo, authMW.Authorize(authz.UsersCreate))
	todos.GET("/:id", todoCtrl.FindTodo, authMW.Authorize(authz.UsersGet))
	todos.PUT("/:id", todoCtrl.UpdateTodo, authMW.Authorize(authz.UsersUpdate))
	todos.DELETE("/:id", todoCtrl.DeleteTodo, authMW.Authorize(authz.UsersDelete))
}
