package services

import (
	"context"
	"fmt"

	"psgc_api_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCodeLength = 10

// upsertOnCode updates every listed column of the row already holding the
// same code. A soft-deleted row is restored; the surrogate id never changes.
func upsertOnCode(columns ...string) clause.OnConflict {
	set := clause.AssignmentColumns(append(columns, "updated_at"))
	set = append(set, clause.Assignment{Column: clause.Column{Name: "deleted_at"}, Value: nil})
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: set,
	}
}

func requireCode(rec CSVRecord) (string, error) {
	code := rec.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}
	if len(code) > maxCodeLength {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrMissingCode, code, maxCodeLength)
	}
	return code, nil
}

// optional maps a blank cell to NULL
func optional(rec CSVRecord, column string) *string {
	if v := rec.Get(column); v != "" {
		return &v
	}
	return nil
}

// UpsertRegion writes one regions row
func UpsertRegion(ctx context.Context, tx *gorm.DB, rec CSVRecord) error {
	code, err := requireCode(rec)
	if err != nil {
		return err
	}

	region := models.Region{
		Code:        code,
		Name:        rec.Get("name"),
		ShortName:   optional(rec, "short_name"),
		IslandGroup: optional(rec, "island_group"),
		Status:      models.NormalizeStatus(rec.Get("status")),
	}

	return tx.WithContext(ctx).
		Clauses(upsertOnCode("name", "short_name", "island_group", "status")).
		Create(&region).Error
}

// UpsertProvince writes one provinces row, resolving region_code
func UpsertProvince(ctx context.Context, tx *gorm.DB, res *Resolver, rec CSVRecord) error {
	code, err := requireCode(rec)
	if err != nil {
		return err
	}

	region, err := res.Resolve(ctx, LevelRegion, rec.Get("region_code"))
	if err != nil {
		return err
	}

	province := models.Province{
		Code:     code,
		Name:     rec.Get("name"),
		RegionID: region.Ptr(),
		OldName:  optional(rec, "old_name"),
		Status:   models.NormalizeStatus(rec.Get("status")),
	}

	return tx.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(upsertOnCode("name", "region_id", "old_name", "status")).
		Create(&province).Error
}

// UpsertCityMunicipality writes one city_municipalities row. Any type other
// than City or Municipality is stored as Municipality.
func UpsertCityMunicipality(ctx context.Context, tx *gorm.DB, res *Resolver, rec CSVRecord) error {
	code, err := requireCode(rec)
	if err != nil {
		return err
	}

	province, err := res.Resolve(ctx, LevelProvince, rec.Get("province_code"))
	if err != nil {
		return err
	}
	region, err := res.Resolve(ctx, LevelRegion, rec.Get("region_code"))
	if err != nil {
		return err
	}

	city := models.CityMunicipality{
		Code:        code,
		Name:        rec.Get("name"),
		ProvinceID:  province.Ptr(),
		RegionID:    region.Ptr(),
		Type:        models.NormalizeCityType(rec.Get("type")),
		IncomeClass: optional(rec, "income_class"),
		UrbanRural:  optional(rec, "urban_rural"),
		OldName:     optional(rec, "old_name"),
		Status:      models.NormalizeStatus(rec.Get("status")),
	}

	return tx.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(upsertOnCode("name", "province_id", "region_id", "type", "income_class", "urban_rural", "old_name", "status")).
		Create(&city).Error
}

// UpsertBarangay writes one barangays row, resolving all three ancestors
func UpsertBarangay(ctx context.Context, tx *gorm.DB, res *Resolver, rec CSVRecord) error {
	code, err := requireCode(rec)
	if err != nil {
		return err
	}

	city, err := res.Resolve(ctx, LevelCityMunicipality, rec.Get("city_municipality_code"))
	if err != nil {
		return err
	}
	province, err := res.Resolve(ctx, LevelProvince, rec.Get("province_code"))
	if err != nil {
		return err
	}
	region, err := res.Resolve(ctx, LevelRegion, rec.Get("region_code"))
	if err != nil {
		return err
	}

	barangay := models.Barangay{
		Code:               code,
		Name:               rec.Get("name"),
		CityMunicipalityID: city.Ptr(),
		ProvinceID:         province.Ptr(),
		RegionID:           region.Ptr(),
		OldName:            optional(rec, "old_name"),
		Status:             models.NormalizeStatus(rec.Get("status")),
	}

	return tx.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(upsertOnCode("name", "city_municipality_id", "province_id", "region_id", "old_name", "status")).
		Create(&barangay).Error
}
