package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"psgc_api_go/config"
	"psgc_api_go/db"
	"psgc_api_go/metrics"
	"psgc_api_go/models"
	"psgc_api_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	defaultListTTL = 15 * time.Minute
	defaultShowTTL = 30 * time.Minute
)

// ShowResponse wraps a single resource in the same envelope as lists
type ShowResponse[T any] struct {
	Table string `json:"table"`
	Rows  []T    `json:"rows"`
}

// ListRegionsHandler returns a page of regions
// GET /api/v1/regions?q=&status=&page=&per_page=
func ListRegionsHandler(c echo.Context) error {
	return serveList(c, models.TableRegions, services.ListRegions)
}

// GetRegionHandler returns one region by PSGC code
// GET /api/v1/regions/:code
func GetRegionHandler(c echo.Context) error {
	return serveShow(c, models.TableRegions, "Region not found", services.FindRegionByCode)
}

// ListProvincesHandler returns a page of provinces
// GET /api/v1/provinces?region_code=
func ListProvincesHandler(c echo.Context) error {
	return serveList(c, models.TableProvinces, services.ListProvinces)
}

// GetProvinceHandler returns one province by PSGC code
// GET /api/v1/provinces/:code
func GetProvinceHandler(c echo.Context) error {
	return serveShow(c, models.TableProvinces, "Province not found", services.FindProvinceByCode)
}

// ListCityMunicipalitiesHandler returns a page of cities and municipalities
// GET /api/v1/city-municipalities?province_code=&region_code=&type=
func ListCityMunicipalitiesHandler(c echo.Context) error {
	return serveList(c, models.TableCityMunicipalities, services.ListCityMunicipalities)
}

// GetCityMunicipalityHandler returns one city/municipality by PSGC code
// GET /api/v1/city-municipalities/:code
func GetCityMunicipalityHandler(c echo.Context) error {
	return serveShow(c, models.TableCityMunicipalities, "City/Municipality not found", services.FindCityMunicipalityByCode)
}

// ListBarangaysHandler returns a page of barangays
// GET /api/v1/barangays?city_municipality_code=&province_code=&region_code=
func ListBarangaysHandler(c echo.Context) error {
	return serveList(c, models.TableBarangays, services.ListBarangays)
}

// GetBarangayHandler returns one barangay by PSGC code
// GET /api/v1/barangays/:code
func GetBarangayHandler(c echo.Context) error {
	return serveShow(c, models.TableBarangays, "Barangay not found", services.FindBarangayByCode)
}

type listFunc[T any] func(ctx context.Context, conn *gorm.DB, p services.ListParams) (*services.Page[T], error)

type findFunc[T any] func(ctx context.Context, conn *gorm.DB, code string) (*T, error)

func serveList[T any](c echo.Context, table string, list listFunc[T]) error {
	params, err := services.ParseListParams(c.QueryParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	listTTL, _ := cacheTTLs(c)
	key := services.CacheKey(table, "list", params.CacheParams())

	return serveCached(c, table, key, listTTL, func(ctx context.Context) (interface{}, error) {
		page, err := list(ctx, db.DB, params)
		if err != nil {
			log.Printf("[ERROR] Failed to list %s: %v", table, err)
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch "+table)
		}
		return page, nil
	})
}

func serveShow[T any](c echo.Context, table, notFound string, find findFunc[T]) error {
	code := c.Param("code")

	_, showTTL := cacheTTLs(c)
	key := services.CacheKey(table, "show", map[string]string{"code": code})

	return serveCached(c, table, key, showTTL, func(ctx context.Context) (interface{}, error) {
		row, err := find(ctx, db.DB, code)
		if errors.Is(err, services.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, notFound)
		}
		if err != nil {
			log.Printf("[ERROR] Failed to get %s %s: %v", table, code, err)
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch "+table)
		}
		return ShowResponse[T]{Table: table, Rows: []T{*row}}, nil
	})
}

// serveCached answers from the response cache when possible. Only successful
// bodies are stored; errors from load are returned untouched.
func serveCached(c echo.Context, entity, key string, ttl time.Duration, load func(ctx context.Context) (interface{}, error)) error {
	ctx := c.Request().Context()

	body, hit, err := services.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("[WARNING] Cache read failed for %s: %v", key, err)
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(entity).Inc()
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSONBlob(http.StatusOK, body)
	}
	metrics.CacheMissesTotal.WithLabelValues(entity).Inc()

	v, err := load(ctx)
	if err != nil {
		return err
	}

	body, err = json.Marshal(v)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to encode response")
	}

	if err := services.Cache.Set(ctx, key, body, ttl); err != nil {
		log.Printf("[WARNING] Cache write failed for %s: %v", key, err)
	}

	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSONBlob(http.StatusOK, body)
}

// cacheTTLs reads list/show TTLs from the config set on the context
func cacheTTLs(c echo.Context) (time.Duration, time.Duration) {
	cfg, ok := c.Get("config").(*config.Config)
	if !ok || cfg == nil {
		return defaultListTTL, defaultShowTTL
	}
	return cfg.CacheListTTL, cfg.CacheShowTTL
}
