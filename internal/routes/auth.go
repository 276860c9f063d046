package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/controllers"
	"todo-api/internal/services"
	"todo-api/pkg/middleware"
	"todo-api/pkg/service"
)

func runAuthRouter(e *echo.Echo, authService services.AuthServiceInterface, jwtSvc service.JWTService, cookieSecure bool, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	authCtrl := controllers.NewAuthController(authService, jwtSvc, cookieSecure, logger)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signUp", authCtrl.SignUp)
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh", authCtrl.Refresh)
		authGroup.POST("/logout", authCtrl.Logout)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}
