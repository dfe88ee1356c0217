package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Barangay is the lowest PSGC level; all three ancestors are referenced directly.
type Barangay struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code               string  `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Name               string  `gorm:"not null;index" json:"name"`
	CityMunicipalityID *string `gorm:"type:uuid;index" json:"city_municipality_id"`
	ProvinceID         *string `gorm:"type:uuid;index" json:"province_id"`
	RegionID           *string `gorm:"type:uuid;index" json:"region_id"`
	OldName            *string `json:"old_name"`
	Status             string  `gorm:"size:20;not null;default:active;index" json:"status"`

	// Constraints only; never preloaded
	CityMunicipality *CityMunicipality `gorm:"foreignKey:CityMunicipalityID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Province         *Province         `gorm:"foreignKey:ProvinceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Region           *Region           `gorm:"foreignKey:RegionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// BeforeCreate hook to generate UUID
func (b *Barangay) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Barangay) TableName() string {
	return "barangays"
}
