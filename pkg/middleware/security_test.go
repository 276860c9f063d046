package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pingServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/todos/:id", func(c echo.Context) error { return c.String(http.StatusOK, c.Param("id")) })
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	e := pingServer(RateLimit(3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(e, "/ping").Code)
	}
	rec := get(e, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":false`)
}

func TestRateLimit_Disabled(t *testing.T) {
	e := pingServer(RateLimit(0))
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, get(e, "/ping").Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	e := pingServer(SecureHeaders(false, zap.NewNop()))

	rec := get(e, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	e := pingServer(m.Middleware())
	e.GET("/metrics", m.Handler())

	get(e, "/todos/1")
	get(e, "/todos/2")
	get(e, "/missing")

	body := get(e, "/metrics").Body.String()
	assert.Contains(t, body, `todo_api_http_requests_total{code="200",method="GET",route="/todos/:id"} 2`)
	assert.True(t, strings.Contains(body, `code="404"`), body)
	assert.Contains(t, body, "go_goroutines")
}
