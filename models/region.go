package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Region is the top level of the PSGC hierarchy (e.g. "1300000000" NCR)
type Region struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code        string  `gorm:"size:10;uniqueIndex;not null" json:"code"` // kept as text to preserve leading zeros
	Name        string  `gorm:"not null;index" json:"name"`
	ShortName   *string `json:"short_name"`   // e.g. "Region I", "NCR"
	IslandGroup *string `json:"island_group"` // Luzon/Visayas/Mindanao
	Status      string  `gorm:"size:20;not null;default:active;index" json:"status"`
}

// BeforeCreate hook to generate UUID
func (r *Region) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Region) TableName() string {
	return "regions"
}
