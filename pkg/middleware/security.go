package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// SecureHeaders sets the usual hardening headers on every response.
func SecureHeaders(production bool, logger *zap.Logger) echo.MiddlewareFunc {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'",
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := secureMiddleware.Process(c.Response(), c.Request()); err != nil {
				logger.Warn("secure headers blocked request", zap.Error(err))
				return echo.NewHTTPError(http.StatusBadRequest, "Request blocked")
			}
			return next(c)
		}
	}
}

// RateLimit allows limit requests per minute per client IP. A non-positive
// limit disables it.
func RateLimit(limit int) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limiter := httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  false,
				"message": "Too many requests, please try again later",
			})
		}),
	)
	return echo.WrapMiddleware(limiter)
}
