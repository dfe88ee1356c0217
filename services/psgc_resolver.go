package services

import (
	"context"
	"errors"
	"fmt"

	"psgc_api_go/models"

	"gorm.io/gorm"
)

// Level identifies one tier of the PSGC hierarchy
type Level string

const (
	LevelRegion           Level = models.TableRegions
	LevelProvince         Level = models.TableProvinces
	LevelCityMunicipality Level = models.TableCityMunicipalities
	LevelBarangay         Level = models.TableBarangays
)

func (l Level) model() (interface{}, error) {
	switch l {
	case LevelRegion:
		return &models.Region{}, nil
	case LevelProvince:
		return &models.Province{}, nil
	case LevelCityMunicipality:
		return &models.CityMunicipality{}, nil
	case LevelBarangay:
		return &models.Barangay{}, nil
	}
	return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidOption, string(l))
}

// Ref is an optional reference to a parent record's surrogate id.
// The zero value is the absent reference.
type Ref struct {
	id string
	ok bool
}

// SomeRef wraps a resolved id
func SomeRef(id string) Ref {
	return Ref{id: id, ok: true}
}

// Get returns the id and whether it is present
func (r Ref) Get() (string, bool) {
	return r.id, r.ok
}

// Valid reports whether the reference resolved
func (r Ref) Valid() bool {
	return r.ok
}

// Ptr converts the reference into a nullable column value
func (r Ref) Ptr() *string {
	if !r.ok {
		return nil
	}
	id := r.id
	return &id
}

// Resolver looks parents up by business code. Hits and misses are memoised
// for the lifetime of the resolver, which is one import run: every parent
// table is fully written before a child table starts reading it.
type Resolver struct {
	tx   *gorm.DB
	memo map[Level]map[string]Ref
}

// NewResolver creates a resolver bound to tx
func NewResolver(tx *gorm.DB) *Resolver {
	return &Resolver{tx: tx, memo: make(map[Level]map[string]Ref)}
}

// Resolve returns the surrogate id of the live record with the given code.
// A blank or unknown code yields an absent Ref, not an error.
func (r *Resolver) Resolve(ctx context.Context, level Level, code string) (Ref, error) {
	if code == "" {
		return Ref{}, nil
	}
	if cached, ok := r.memo[level][code]; ok {
		return cached, nil
	}

	model, err := level.model()
	if err != nil {
		return Ref{}, err
	}

	var row struct{ ID string }
	err = r.tx.WithContext(ctx).Model(model).Select("id").Where("code = ?", code).Take(&row).Error

	var ref Ref
	switch {
	case err == nil:
		ref = SomeRef(row.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		ref = Ref{}
	default:
		return Ref{}, fmt.Errorf("failed to resolve %s code %s: %w", level, code, err)
	}

	if r.memo[level] == nil {
		r.memo[level] = make(map[string]Ref)
	}
	r.memo[level][code] = ref
	return ref, nil
}
