package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"psgc_api_go/config"
	"psgc_api_go/db"
	"psgc_api_go/models"
	"psgc_api_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Use unique shared memory name to isolate tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(models.All()...))

	// Set global DB and a fresh cache per test
	db.DB = testDB
	cache := services.NewMemoryCache(time.Hour)
	services.Cache = cache
	t.Cleanup(func() {
		cache.Stop()
		services.Cache = services.NoopCache{}
	})

	return testDB
}

// seedTestData imports a small dataset through the real import pipeline
func seedTestData(t *testing.T, conn *gorm.DB) {
	dir := t.TempDir()
	write := func(name string, lines ...string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
		return path
	}

	_, err := services.NewImporter(conn, nil, nil).Run(context.Background(), services.ImportOptions{
		Regions: write("regions.csv",
			"code,name,short_name,island_group,status",
			"0100000000,Region I (Ilocos Region),Region I,Luzon,active",
			"1300000000,National Capital Region (NCR),NCR,Luzon,active",
		),
		Provinces: write("provinces.csv",
			"code,name,region_code,old_name,status",
			"0102800000,Ilocos Norte,0100000000,,active",
		),
		CityMunicipalities: write("city_municipalities.csv",
			"code,name,province_code,region_code,type,income_class,urban_rural,old_name,status",
			"0102805000,City of Batac,0102800000,0100000000,City,5th,,,active",
			"0102801000,Adams,0102800000,0100000000,Municipality,5th,,,active",
		),
		Barangays: write("barangays.csv",
			"code,name,city_municipality_code,province_code,region_code,old_name,status",
			"0102805001,Aglipay (Pob.),0102805000,0102800000,0100000000,,active",
			"0102805002,Baay,0102805000,0102800000,0100000000,,active",
			"0102801001,Adams (Pob.),0102801000,0102800000,0100000000,,active",
		),
	})
	require.NoError(t, err)
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment:  "test",
		CacheListTTL: 15 * time.Minute,
		CacheShowTTL: 30 * time.Minute,
	})

	return e, c, rec
}

// setupRouter builds an echo instance with every route registered
func setupRouter() *echo.Echo {
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", &config.Config{
				Environment:  "test",
				CacheListTTL: 15 * time.Minute,
				CacheShowTTL: 30 * time.Minute,
			})
			return next(c)
		}
	})
	RegisterRoutes(e, "/api/v1", 15*time.Minute, 30*time.Minute)
	return e
}
