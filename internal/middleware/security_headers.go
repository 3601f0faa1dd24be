package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

func contentSecurityPolicy(previewSources []string) string {
	extra := ""
	if len(previewSources) > 0 {
		extra = " " + strings.Join(previewSources, " ")
	}
	return "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: blob:" + extra + "; " +
		"media-src 'self' blob:" + extra + "; " +
		"object-src 'none'; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}

// SecurityHeaders sets the baseline browser hardening headers. previewSources
// are extra origins allowed to serve image and media previews, such as the object store.
func SecurityHeaders(previewSources ...string) echo.MiddlewareFunc {
	csp := contentSecurityPolicy(previewSources)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			headers := c.Response().Header()
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			headers.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			headers.Set("Content-Security-Policy", csp)

			if isSecureRequest(c) {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}

func isSecureRequest(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https")
}
