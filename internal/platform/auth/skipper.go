package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths never read session credentials, so a stale token held by the
// browser cannot lock a client out of health checks or of starting a new
// session.
var publicPaths = map[string]bool{
	"/health":         true,
	"/health/db":      true,
	"/metrics":        true,
	"/api/v1/session": true,
}

// Skipper returns true for requests whose path should skip identity
// resolution.
func Skipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
