package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/authz"
	"todo-api/internal/entities"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
)

const (
	msgUnauthenticated      = "Unauthenticated"
	msgRefreshTokenMissing  = "Refresh token missing"
	msgRefreshVerifyFailure = "Failed to verify refresh token"
)

// PrincipalLoader rebuilds the current role and permissions of a user from
// the store.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID uint64) (*entities.Principal, error)
}

type AuthMiddleware struct {
	jwtService   service.JWTService
	loader       PrincipalLoader
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, loader PrincipalLoader, cookieSecure bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:   jwtSvc,
		loader:       loader,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Auth verifies the bearer access token. An expired access token is replaced
// through the refreshToken cookie before the handler runs.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			m.logger.Debug("AuthMiddleware: empty Authorization header")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.logger.Debug("AuthMiddleware: malformed Authorization header")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		switch {
		case err == nil:
			if claims.TokenType != service.AccessToken {
				return utils.ErrorResponse(c,
					apperrors.NewUnauthenticatedError(msgUnauthenticated).WithCause(apperrors.ErrTokenIsNotAccess), m.logger)
			}
			return m.proceed(c, next, claims.Principal())
		case errors.Is(err, apperrors.ErrTokenExpired):
			return m.refresh(c, next)
		default:
			m.logger.Debug("AuthMiddleware: token rejected", zap.Error(err))
			return utils.ErrorResponse(c, apperrors.NewUnauthenticatedError(msgUnauthenticated), m.logger)
		}
	}
}

func (m *AuthMiddleware) refresh(c echo.Context, next echo.HandlerFunc) error {
	cookie, err := c.Cookie(utils.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return utils.ErrorResponse(c, apperrors.NewUnauthenticatedError(msgRefreshTokenMissing), m.logger)
	}

	claims, err := m.jwtService.ValidateToken(cookie.Value)
	if err != nil {
		m.logger.Debug("AuthMiddleware: refresh token rejected", zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewUnauthenticatedError(msgRefreshVerifyFailure), m.logger)
	}
	if claims.TokenType != service.RefreshToken {
		return utils.ErrorResponse(c,
			apperrors.NewUnauthenticatedError(msgRefreshVerifyFailure).WithCause(apperrors.ErrTokenIsNotRefresh), m.logger)
	}

	principal, err := m.loader.LoadPrincipal(c.Request().Context(), claims.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			m.logger.Error("AuthMiddleware: failed to load principal", zap.Uint64("userID", claims.ID), zap.Error(err))
		}
		return utils.ErrorResponse(c, apperrors.NewUnauthenticatedError(msgRefreshVerifyFailure), m.logger)
	}

	accessToken, refreshToken, err := m.jwtService.GenerateTokens(principal)
	if err != nil {
		return utils.ErrorResponse(c, err, m.logger)
	}
	utils.SetTokenCookies(c, accessToken, refreshToken,
		m.jwtService.GetAccessTokenTTL(), m.jwtService.GetRefreshTokenTTL(), m.cookieSecure)

	m.logger.Info("AuthMiddleware: access token refreshed", zap.Uint64("userID", principal.ID))
	return m.proceed(c, next, principal)
}

func (m *AuthMiddleware) proceed(c echo.Context, next echo.HandlerFunc, p *entities.Principal) error {
	ctx := utils.WithPrincipal(c.Request().Context(), p)
	c.SetRequest(c.Request().WithContext(ctx))
	return next(c)
}

// Authorize lets super-users and holders of permission through.
func (m *AuthMiddleware) Authorize(permission string) echo.MiddlewareFunc {
	return m.Require(authz.Authorize(permission))
}

func (m *AuthMiddleware) IsSuperUser() echo.MiddlewareFunc {
	return m.Require(authz.IsSuperUser())
}

// Require runs check against the request principal and stops the chain on
// the first denial. It must be mounted after Auth.
func (m *AuthMiddleware) Require(check authz.Check) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := utils.GetPrincipalFromCtx(c.Request().Context())
			if err != nil {
				m.logger.Error("AuthMiddleware: authorization without principal", zap.String("path", c.Path()))
				return utils.ErrorResponse(c, apperrors.NewUnauthenticatedError(msgUnauthenticated), m.logger)
			}
			if d := check(p); !d.Allowed {
				m.logger.Debug("AuthMiddleware: access denied",
					zap.Uint64("userID", p.ID),
					zap.String("path", c.Path()),
					zap.String("reason", d.Reason))
				return utils.ErrorResponse(c, apperrors.NewForbiddenError(d.Reason), m.logger)
			}
			return next(c)
		}
	}
}
