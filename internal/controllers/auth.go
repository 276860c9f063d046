package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/services"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
)

type AuthController struct {
	authService  services.AuthServiceInterface
	jwtSvc       service.JWTService
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	jwtSvc service.JWTService,
	cookieSecure bool,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService:  authService,
		jwtSvc:       jwtSvc,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) SignUp(c echo.Context) error {
	var payload dto.SignUpDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("SignUp: bind failed", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Invalid sign up payload"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if _, err := ctrl.authService.SignUp(c.Request().Context(), payload); err != nil {
		ctrl.logger.Debug("SignUp: rejected", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Sign Up successful", http.StatusCreated)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("Login: bind failed", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Invalid login payload"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	tokens, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Debug("Login: rejected", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}

	ctrl.setCookies(c, tokens.AccessToken, tokens.RefreshToken)
	return utils.SuccessResponse(c, tokens, "Login successful", http.StatusOK)
}

// Refresh reads the refresh token from the body first and from the
// refreshToken cookie second.
func (ctrl *AuthController) Refresh(c echo.Context) error {
	var payload dto.RefreshDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("Refresh: bind failed", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("refresh token invalid"))
	}

	token := payload.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(utils.RefreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}

	tokens, err := ctrl.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	ctrl.setCookies(c, tokens.NewAccessToken, tokens.NewRefreshToken)
	return utils.SuccessResponse(c, tokens, "Token refreshed", http.StatusOK)
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	utils.ClearTokenCookies(c, ctrl.cookieSecure)
	return utils.SuccessResponse(c, nil, "Logged out", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	p, err := utils.GetPrincipalFromCtx(c.Request().Context())
	if err != nil {
		ctrl.logger.Error("Me: principal missing on an authenticated route")
		return ctrl.errorResponse(c, apperrors.NewUnauthenticatedError("Unauthenticated"))
	}
	return utils.SuccessResponse(c, p.View(), "Profile fetched", http.StatusOK)
}

func (ctrl *AuthController) setCookies(c echo.Context, accessToken, refreshToken string) {
	utils.SetTokenCookies(c, accessToken, refreshToken,
		ctrl.jwtSvc.GetAccessTokenTTL(), ctrl.jwtSvc.GetRefreshTokenTTL(), ctrl.cookieSecure)
}
