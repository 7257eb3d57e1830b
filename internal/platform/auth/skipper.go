package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication: health checks, the Prometheus scrape
// endpoint and the API description.
var publicPaths = map[string]bool{
	"/api/health":       true,
	"/health/db":        true,
	"/metrics":          true,
	"/api/openapi.json": true,
	"/api/docs":         true,
}

// AuthSkipper reports whether the matched route is public. It falls back to
// the raw URL path when no route matched.
func AuthSkipper(c echo.Context) bool {
	if p := c.Path(); p != "" {
		return publicPaths[p]
	}
	return publicPaths[c.Request().URL.Path]
}

// IsPublicPath reports whether path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
