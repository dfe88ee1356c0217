package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"psgc_api_go/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 50
	MaxPerPage     = 200

	// MaxPage keeps (page-1)*per_page inside a 32-bit offset
	MaxPage = math.MaxInt32 / MaxPerPage
)

var validate = validator.New()

// ListParams are the filters accepted by every list endpoint. Parent filters
// that do not apply to an entity are ignored.
type ListParams struct {
	Q                    string
	Status               string `validate:"omitempty,oneof=active inactive"`
	Page                 int    `validate:"min=1"`
	PerPage              int    `validate:"min=1,max=200"`
	RegionCode           string
	ProvinceCode         string
	CityMunicipalityCode string
	Type                 string `validate:"omitempty,oneof=City Municipality"`
}

// ParseListParams reads list filters through get (usually a query string
// lookup). page falls back to 1 and is capped at MaxPage; per_page is clamped
// to 1..200.
func ParseListParams(get func(name string) string) (ListParams, error) {
	p := ListParams{
		Q:                    strings.TrimSpace(get("q")),
		Status:               strings.TrimSpace(get("status")),
		Page:                 1,
		PerPage:              DefaultPerPage,
		RegionCode:           strings.TrimSpace(get("region_code")),
		ProvinceCode:         strings.TrimSpace(get("province_code")),
		CityMunicipalityCode: strings.TrimSpace(get("city_municipality_code")),
		Type:                 strings.TrimSpace(get("type")),
	}
	if p.CityMunicipalityCode == "" {
		p.CityMunicipalityCode = strings.TrimSpace(get("citymun_code"))
	}

	if v := strings.TrimSpace(get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			p.Page = min(n, MaxPage)
		}
	}
	if v := strings.TrimSpace(get("per_page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.PerPage = min(max(n, 1), MaxPerPage)
		}
	}

	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return p, nil
}

// CacheParams returns the parameters that make up a list cache key
func (p ListParams) CacheParams() map[string]string {
	return map[string]string{
		"q":        p.Q,
		"status":   p.Status,
		"region":   p.RegionCode,
		"province": p.ProvinceCode,
		"citymun":  p.CityMunicipalityCode,
		"type":     p.Type,
		"page":     strconv.Itoa(p.Page),
		"per_page": strconv.Itoa(p.PerPage),
	}
}

// Pagination mirrors the list envelope's pagination block. From and To are
// null on an empty page.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// Page is one page of a list endpoint
type Page[T any] struct {
	Table      string     `json:"table"`
	Rows       []T        `json:"rows"`
	Pagination Pagination `json:"pagination"`
}

func newPagination(p ListParams, total int64, count int) Pagination {
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}
	pg := Pagination{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		LastPage:    lastPage,
	}
	if count > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + count - 1
		pg.From, pg.To = &from, &to
	}
	return pg
}

func paginate[T any](query *gorm.DB, table string, p ListParams) (*Page[T], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}

	rows := make([]T, 0)
	if int64(p.Page-1) >= (total+int64(p.PerPage)-1)/int64(p.PerPage) {
		// past the last page
		return &Page[T]{Table: table, Rows: rows, Pagination: newPagination(p, total, 0)}, nil
	}

	err := query.
		Order("name ASC").Order("code ASC").
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}

	return &Page[T]{Table: table, Rows: rows, Pagination: newPagination(p, total, len(rows))}, nil
}

// applyCommon adds the q and status filters. q is matched against name or
// code as one grouped condition.
func applyCommon(query *gorm.DB, p ListParams) *gorm.DB {
	if p.Q != "" {
		like := "%" + p.Q + "%"
		query = query.Where("(name LIKE ? OR code LIKE ?)", like, like)
	}
	if p.Status != "" {
		query = query.Where("status = ?", p.Status)
	}
	return query
}

// whereParent restricts column to the live parent with code. An unknown
// code matches nothing.
func whereParent(query *gorm.DB, conn *gorm.DB, column string, parent interface{}, code string) *gorm.DB {
	if code == "" {
		return query
	}
	sub := conn.Session(&gorm.Session{NewDB: true}).Model(parent).Select("id").Where("code = ?", code).Limit(1)
	return query.Where(column+" = (?)", sub)
}

// ListRegions returns one page of regions
func ListRegions(ctx context.Context, conn *gorm.DB, p ListParams) (*Page[models.Region], error) {
	query := applyCommon(conn.WithContext(ctx).Model(&models.Region{}), p)
	return paginate[models.Region](query.Session(&gorm.Session{}), models.TableRegions, p)
}

// ListProvinces returns one page of provinces, optionally within a region
func ListProvinces(ctx context.Context, conn *gorm.DB, p ListParams) (*Page[models.Province], error) {
	query := conn.WithContext(ctx).Model(&models.Province{})
	query = whereParent(query, conn, "region_id", &models.Region{}, p.RegionCode)
	query = applyCommon(query, p)
	return paginate[models.Province](query.Session(&gorm.Session{}), models.TableProvinces, p)
}

// ListCityMunicipalities returns one page of cities and municipalities
func ListCityMunicipalities(ctx context.Context, conn *gorm.DB, p ListParams) (*Page[models.CityMunicipality], error) {
	query := conn.WithContext(ctx).Model(&models.CityMunicipality{})
	query = whereParent(query, conn, "province_id", &models.Province{}, p.ProvinceCode)
	query = whereParent(query, conn, "region_id", &models.Region{}, p.RegionCode)
	if p.Type != "" {
		query = query.Where("type = ?", p.Type)
	}
	query = applyCommon(query, p)
	return paginate[models.CityMunicipality](query.Session(&gorm.Session{}), models.TableCityMunicipalities, p)
}

// ListBarangays returns one page of barangays
func ListBarangays(ctx context.Context, conn *gorm.DB, p ListParams) (*Page[models.Barangay], error) {
	query := conn.WithContext(ctx).Model(&models.Barangay{})
	query = whereParent(query, conn, "city_municipality_id", &models.CityMunicipality{}, p.CityMunicipalityCode)
	query = whereParent(query, conn, "province_id", &models.Province{}, p.ProvinceCode)
	query = whereParent(query, conn, "region_id", &models.Region{}, p.RegionCode)
	query = applyCommon(query, p)
	return paginate[models.Barangay](query.Session(&gorm.Session{}), models.TableBarangays, p)
}

func findByCode[T any](ctx context.Context, conn *gorm.DB, entity, code string) (*T, error) {
	var row T
	err := conn.WithContext(ctx).Where("code = ?", code).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, entity, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", entity, code, err)
	}
	return &row, nil
}

// FindRegionByCode returns the live region with code or ErrNotFound
func FindRegionByCode(ctx context.Context, conn *gorm.DB, code string) (*models.Region, error) {
	return findByCode[models.Region](ctx, conn, "region", code)
}

// FindProvinceByCode returns the live province with code or ErrNotFound
func FindProvinceByCode(ctx context.Context, conn *gorm.DB, code string) (*models.Province, error) {
	return findByCode[models.Province](ctx, conn, "province", code)
}

// FindCityMunicipalityByCode returns the live city/municipality with code or ErrNotFound
func FindCityMunicipalityByCode(ctx context.Context, conn *gorm.DB, code string) (*models.CityMunicipality, error) {
	return findByCode[models.CityMunicipality](ctx, conn, "city/municipality", code)
}

// FindBarangayByCode returns the live barangay with code or ErrNotFound
func FindBarangayByCode(ctx context.Context, conn *gorm.DB, code string) (*models.Barangay, error) {
	return findByCode[models.Barangay](ctx, conn, "barangay", code)
}
