package handlers

import (
	"time"

	"psgc_api_go/metrics"
	"psgc_api_go/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the read API under prefix plus /health and /metrics.
// Only API responses carry Cache-Control: lists for listTTL, single
// resources for showTTL.
func RegisterRoutes(e *echo.Echo, prefix string, listTTL, showTTL time.Duration) {
	e.GET("/health", HealthHandler)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	list := middleware.CacheControl(listTTL)
	show := middleware.CacheControl(showTTL)

	api := e.Group(prefix)
	{
		api.GET("/regions", ListRegionsHandler, list)
		api.GET("/regions/:code", GetRegionHandler, show)

		api.GET("/provinces", ListProvincesHandler, list)
		api.GET("/provinces/:code", GetProvinceHandler, show)

		api.GET("/city-municipalities", ListCityMunicipalitiesHandler, list)
		api.GET("/city-municipalities/:code", GetCityMunicipalityHandler, show)

		api.GET("/barangays", ListBarangaysHandler, list)
		api.GET("/barangays/:code", GetBarangayHandler, show)
	}
}
