package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"psgc_api_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func queryGetter(values map[string]string) func(string) string {
	return func(name string) string { return values[name] }
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]string
		page    int
		perPage int
		wantErr bool
	}{
		{"defaults", map[string]string{}, 1, DefaultPerPage, false},
		{"explicit", map[string]string{"page": "3", "per_page": "20"}, 3, 20, false},
		{"per_page clamped high", map[string]string{"per_page": "1000"}, 1, MaxPerPage, false},
		{"per_page clamped low", map[string]string{"per_page": "0"}, 1, 1, false},
		{"garbage falls back", map[string]string{"page": "x", "per_page": "y"}, 1, DefaultPerPage, false},
		{"negative page", map[string]string{"page": "-2"}, 1, DefaultPerPage, false},
		{"huge page capped", map[string]string{"page": "9223372036854775807", "per_page": "200"}, MaxPage, MaxPerPage, false},
		{"bad type", map[string]string{"type": "Town"}, 1, DefaultPerPage, true},
		{"bad status", map[string]string{"status": "deleted"}, 1, DefaultPerPage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseListParams(queryGetter(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOption)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
		})
	}
}

func TestParseListParamsCitymunAlias(t *testing.T) {
	p, err := ParseListParams(queryGetter(map[string]string{"citymun_code": "0102805000"}))
	require.NoError(t, err)
	assert.Equal(t, "0102805000", p.CityMunicipalityCode)

	p, err = ParseListParams(queryGetter(map[string]string{"citymun_code": "a", "city_municipality_code": "b"}))
	require.NoError(t, err)
	assert.Equal(t, "b", p.CityMunicipalityCode)
}

func seedQueryData(t *testing.T) *gorm.DB {
	t.Helper()
	conn := setupPSGCTestDB(t)
	_, err := NewImporter(conn, nil, nil).Run(context.Background(), sampleDataset(t))
	require.NoError(t, err)
	return conn
}

func TestListRegions(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	page, err := ListRegions(ctx, conn, ListParams{Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, models.TableRegions, page.Table)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "National Capital Region (NCR)", page.Rows[0].Name, "ordered by name")
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.LastPage)
	require.NotNil(t, page.Pagination.From)
	assert.Equal(t, 1, *page.Pagination.From)
	assert.Equal(t, 2, *page.Pagination.To)
}

func TestListProvincesByRegion(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	page, err := ListProvinces(ctx, conn, ListParams{Page: 1, PerPage: 50, RegionCode: "0100000000"})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)

	page, err = ListProvinces(ctx, conn, ListParams{Page: 1, PerPage: 50, RegionCode: "1300000000"})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)

	page, err = ListProvinces(ctx, conn, ListParams{Page: 1, PerPage: 50, RegionCode: "9999999999"})
	require.NoError(t, err)
	assert.Empty(t, page.Rows, "unknown parent code matches nothing")
	assert.Nil(t, page.Pagination.From)
	assert.Nil(t, page.Pagination.To)
	assert.NotNil(t, page.Rows, "empty pages encode as []")
}

func TestListCityMunicipalitiesFilters(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	page, err := ListCityMunicipalities(ctx, conn, ListParams{Page: 1, PerPage: 50, Type: models.CityTypeCity})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "City of Batac", page.Rows[0].Name)

	page, err = ListCityMunicipalities(ctx, conn, ListParams{Page: 1, PerPage: 50, Status: models.StatusInactive})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "0102812000", page.Rows[0].Code)

	page, err = ListCityMunicipalities(ctx, conn, ListParams{Page: 1, PerPage: 50, ProvinceCode: "0102900000"})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
}

func TestListBarangaysQueryIsGroupedWithParentFilter(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	// "Adams" matches a barangay in another city; the q filter must not widen the parent filter
	page, err := ListBarangays(ctx, conn, ListParams{Page: 1, PerPage: 50, CityMunicipalityCode: "0102805000", Q: "Adams"})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)

	page, err = ListBarangays(ctx, conn, ListParams{Page: 1, PerPage: 50, CityMunicipalityCode: "0102805000", Q: "0102805002"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Baay", page.Rows[0].Name)

	page, err = ListBarangays(ctx, conn, ListParams{Page: 1, PerPage: 50, RegionCode: "0100000000", ProvinceCode: "0102800000"})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 3)
}

func TestListPagination(t *testing.T) {
	conn := setupPSGCTestDB(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, conn.Create(&models.Region{
			Code:   fmt.Sprintf("%02d00000000", i),
			Name:   fmt.Sprintf("Region %d", i),
			Status: models.StatusActive,
		}).Error)
	}

	page, err := ListRegions(ctx, conn, ListParams{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "Region 3", page.Rows[0].Name)
	assert.Equal(t, 3, page.Pagination.LastPage)
	assert.Equal(t, 3, *page.Pagination.From)
	assert.Equal(t, 4, *page.Pagination.To)

	page, err = ListRegions(ctx, conn, ListParams{Page: 3, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, 5, *page.Pagination.From)
	assert.Equal(t, 5, *page.Pagination.To)

	for _, p := range []int{4, MaxPage, math.MaxInt} {
		page, err = ListRegions(ctx, conn, ListParams{Page: p, PerPage: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Rows, "page %d", p)
		assert.Equal(t, p, page.Pagination.CurrentPage)
		assert.Equal(t, int64(5), page.Pagination.Total)
		assert.Nil(t, page.Pagination.From)
		assert.Nil(t, page.Pagination.To)
	}
}

func TestListExcludesSoftDeleted(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	require.NoError(t, conn.Where("code = ?", "1300000000").Delete(&models.Region{}).Error)

	page, err := ListRegions(ctx, conn, ListParams{Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)

	_, err = FindRegionByCode(ctx, conn, "1300000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByCode(t *testing.T) {
	conn := seedQueryData(t)
	ctx := context.Background()

	region, err := FindRegionByCode(ctx, conn, "0100000000")
	require.NoError(t, err)
	assert.Equal(t, "Region I (Ilocos Region)", region.Name)

	province, err := FindProvinceByCode(ctx, conn, "0102800000")
	require.NoError(t, err)
	assert.Equal(t, "Ilocos Norte", province.Name)

	city, err := FindCityMunicipalityByCode(ctx, conn, "0102805000")
	require.NoError(t, err)
	assert.Equal(t, models.CityTypeCity, city.Type)

	barangay, err := FindBarangayByCode(ctx, conn, "0102805002")
	require.NoError(t, err)
	assert.Equal(t, "Baay", barangay.Name)

	_, err = FindBarangayByCode(ctx, conn, "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheParamsFeedCacheKey(t *testing.T) {
	a := ListParams{Page: 1, PerPage: 50, Q: "ilocos"}
	b := ListParams{Page: 2, PerPage: 50, Q: "ilocos"}
	assert.NotEqual(t, CacheKey("regions", "list", a.CacheParams()), CacheKey("regions", "list", b.CacheParams()))
	assert.Equal(t, CacheKey("regions", "list", a.CacheParams()), CacheKey("regions", "list", a.CacheParams()))
}
