package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"psgc_api_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPSGCTestDB creates an isolated in-memory database with the PSGC schema.
// The pool is pinned to one connection so transactions never see shared-cache locks.
func setupPSGCTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := "psgc_" + uuid.New().String()
	conn, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

// writeFixture writes lines joined by newlines to dir/name and returns the path
func writeFixture(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

// sampleDataset writes a small but complete four-level dataset and returns
// import options pointing at it.
func sampleDataset(t *testing.T) ImportOptions {
	t.Helper()
	dir := t.TempDir()
	return ImportOptions{
		Regions: writeFixture(t, dir, "regions.csv",
			"code,name,short_name,island_group,status",
			"0100000000,Region I (Ilocos Region),Region I,Luzon,active",
			"1300000000,National Capital Region (NCR),NCR,Luzon,",
		),
		Provinces: writeFixture(t, dir, "provinces.csv",
			"code,name,region_code,old_name,status",
			"0102800000,Ilocos Norte,0100000000,,active",
			"0102900000,Ilocos Sur,0100000000,,active",
		),
		CityMunicipalities: writeFixture(t, dir, "city_municipalities.csv",
			"code,name,province_code,region_code,type,income_class,urban_rural,old_name,status",
			"0102801000,Adams,0102800000,0100000000,Municipality,5th,,,active",
			"0102805000,City of Batac,0102800000,0100000000,City,5th,,,active",
			"0102812000,Laoag City,0102800000,0100000000,Town,3rd,,,inactive",
		),
		Barangays: writeFixture(t, dir, "barangays.csv",
			"code,name,city_municipality_code,province_code,region_code,old_name,status",
			"0102801001,Adams (Pob.),0102801000,0102800000,0100000000,,active",
			"0102805001,Aglipay (Pob.),0102805000,0102800000,0100000000,,active",
			"0102805002,Baay,0102805000,0102800000,0100000000,Old Baay,",
		),
	}
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}
