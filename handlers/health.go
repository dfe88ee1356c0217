package handlers

import (
	"context"
	"net/http"
	"time"

	"psgc_api_go/db"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the database answers
// GET /health
func HealthHandler(c echo.Context) error {
	status := map[string]string{"status": "ok", "database": "ok"}

	if db.DB == nil {
		status["status"], status["database"] = "degraded", "not initialized"
		return c.JSON(http.StatusServiceUnavailable, status)
	}

	sqlDB, err := db.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["status"], status["database"] = "degraded", err.Error()
		return c.JSON(http.StatusServiceUnavailable, status)
	}

	return c.JSON(http.StatusOK, status)
}
