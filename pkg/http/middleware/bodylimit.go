package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// BodyLimit caps request bodies, e.g. "1M".
func BodyLimit(limit string) echo.MiddlewareFunc {
	if limit == "" {
		limit = "1M"
	}
	return echomw.BodyLimit(limit)
}
