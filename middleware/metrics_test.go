package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"psgc_api_go/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestMetrics(t *testing.T) {
	e := echo.New()
	e.Use(RequestMetrics())
	e.GET("/api/v1/regions/:code", func(c echo.Context) error {
		if c.Param("code") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "Region not found")
		}
		return c.String(http.StatusOK, "ok")
	})

	okCounter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/regions/:code", "200")
	notFoundCounter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/regions/:code", "404")
	okBefore := testutil.ToFloat64(okCounter)
	notFoundBefore := testutil.ToFloat64(notFoundCounter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/regions/0100000000", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/regions/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(okCounter), "labelled by route template, not raw path")
	assert.Equal(t, notFoundBefore+1, testutil.ToFloat64(notFoundCounter))
}

func TestCacheControl(t *testing.T) {
	e := echo.New()
	e.Use(CacheControl(15 * time.Minute))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "nope") })
	e.POST("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/ok", "public, max-age=900"},
		{http.MethodGet, "/fail", "no-store"},
		{http.MethodPost, "/ok", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderCacheControl))
		})
	}
}
