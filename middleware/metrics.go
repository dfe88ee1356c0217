package middleware

import (
	"net/http"
	"strconv"
	"time"

	"psgc_api_go/metrics"

	"github.com/labstack/echo/v4"
)

// RequestMetrics records request counts and latency per route template
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// Let echo's error handler decide the final status
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.RequestDurationMs.WithLabelValues(method, route).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}
