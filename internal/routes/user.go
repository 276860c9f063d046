package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/controllers"
	"todo-api/internal/services"
	"todo-api/pkg/middleware"
)

func runUserRouter(e *echo.Echo, userService services.UserServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	userCtrl := controllers.NewUserController(userService, logger)

	users := e.Group("/users", authMW.Auth, authMW.IsSuperUser())
	users.GET("", userCtrl.GetUsers)
	users.POST("", userCtrl.CreateUser)
	users.GET("/export", userCtrl.ExportUsers)
	users.POST("/role", userCtrl.CreateRole)
	users.POST("/permissions", userCtrl.CreatePermission)
	users.GET("/:id", userCtrl.FindUser)
	users.PUT("/:id", userCtrl.UpdateUser)
	users.DELETE("/:id", userCtrl.DeleteUser)
}
