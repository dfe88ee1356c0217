package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CacheControl marks successful GET responses as publicly cacheable for maxAge.
// Error responses are sent with no-store.
func CacheControl(maxAge time.Duration) echo.MiddlewareFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet || maxAge <= 0 {
				return next(c)
			}

			res := c.Response()
			res.Before(func() {
				if res.Status >= http.StatusBadRequest {
					res.Header().Set(echo.HeaderCacheControl, "no-store")
					return
				}
				res.Header().Set(echo.HeaderCacheControl, value)
			})
			return next(c)
		}
	}
}
