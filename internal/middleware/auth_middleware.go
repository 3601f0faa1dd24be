package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/NeelODE/drive/internal/services"
	"github.com/NeelODE/drive/internal/utils"
)

// publicPaths stay reachable without a session so the UI can load and log in
var publicPaths = map[string]bool{
	"/":           true,
	"/health":     true,
	"/api/login":  true,
	"/api/logout": true,
}

// AuthMiddleware requires a valid session token on every /api route except
// login and logout. The token comes from the session cookie or a Bearer header.
func AuthMiddleware(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if publicPaths[path] || !strings.HasPrefix(path, "/api/") {
				return next(c)
			}

			token, fromCookie := sessionToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				if fromCookie {
					// Clear the stale cookie so the UI falls back to the login prompt
					c.SetCookie(&http.Cookie{Name: utils.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired or invalid")
			}

			c.Set(utils.ContextKeyClaims, claims)

			return next(c)
		}
	}
}

func sessionToken(c echo.Context) (token string, fromCookie bool) {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if t, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(t), false
		}
	}
	if cookie, err := c.Cookie(utils.CookieName); err == nil {
		return cookie.Value, true
	}
	return "", false
}
