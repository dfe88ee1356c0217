package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// City/municipality types
const (
	CityTypeCity         = "City"
	CityTypeMunicipality = "Municipality"
)

// CityMunicipality is the third PSGC level. Region is stored alongside the
// province so reads never walk the hierarchy.
type CityMunicipality struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code        string  `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Name        string  `gorm:"not null;index" json:"name"`
	ProvinceID  *string `gorm:"type:uuid;index" json:"province_id"`
	RegionID    *string `gorm:"type:uuid;index" json:"region_id"`
	Type        string  `gorm:"size:20;not null;default:Municipality;index" json:"type"`
	IncomeClass *string `json:"income_class"`
	UrbanRural  *string `json:"urban_rural"`
	OldName     *string `json:"old_name"`
	Status      string  `gorm:"size:20;not null;default:active;index" json:"status"`

	// Constraints only; never preloaded
	Province *Province `gorm:"foreignKey:ProvinceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Region   *Region   `gorm:"foreignKey:RegionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// BeforeCreate hook to generate UUID
func (c *CityMunicipality) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (CityMunicipality) TableName() string {
	return "city_municipalities"
}

// NormalizeCityType returns t when it is one of the two allowed types and
// Municipality otherwise.
func NormalizeCityType(t string) string {
	if t == CityTypeCity || t == CityTypeMunicipality {
		return t
	}
	return CityTypeMunicipality
}
