package utils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SetTokenCookies writes both tokens as httpOnly cookies.
func SetTokenCookies(c echo.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration, secure bool) {
	c.SetCookie(tokenCookie(AccessTokenCookie, accessToken, accessTTL, secure))
	c.SetCookie(tokenCookie(RefreshTokenCookie, refreshToken, refreshTTL, secure))
}

func ClearTokenCookies(c echo.Context, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		cookie := tokenCookie(name, "", 0, secure)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}

func tokenCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
