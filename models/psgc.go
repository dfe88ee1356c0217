package models

import "strings"

// Record statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Table names in parent-to-child order
const (
	TableRegions            = "regions"
	TableProvinces          = "provinces"
	TableCityMunicipalities = "city_municipalities"
	TableBarangays          = "barangays"
)

// Tables lists the PSGC tables in dependency order (parents first)
func Tables() []string {
	return []string{TableRegions, TableProvinces, TableCityMunicipalities, TableBarangays}
}

// All returns the models to migrate, parents first
func All() []interface{} {
	return []interface{}{&Region{}, &Province{}, &CityMunicipality{}, &Barangay{}}
}

// NormalizeStatus defaults a blank status to active
func NormalizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return StatusActive
	}
	return status
}
