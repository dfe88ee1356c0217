package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Province belongs to a region. RegionID stays NULL when the region code
// did not resolve at import time.
type Province struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code     string  `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Name     string  `gorm:"not null;index" json:"name"`
	RegionID *string `gorm:"type:uuid;index" json:"region_id"`
	OldName  *string `json:"old_name"`
	Status   string  `gorm:"size:20;not null;default:active;index" json:"status"`

	// Constraint only; never preloaded
	Region *Region `gorm:"foreignKey:RegionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// BeforeCreate hook to generate UUID
func (p *Province) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Province) TableName() string {
	return "provinces"
}
