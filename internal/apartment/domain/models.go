package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Apartment is the canonical entity for one real-world apartment complex,
// however many spellings the external sources use for it.
//
// At most one non-deleted row may share (region_id, external_code) when the
// code is present; rows created purely from transaction names carry no code.
type Apartment struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	RegionID     snowflake.ID `json:"region_id" gorm:"not null;index:ix_apartments_region;uniqueIndex:ux_apartments_region_code,priority:1"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	ExternalCode *string      `json:"external_code,omitempty" gorm:"type:varchar(32);uniqueIndex:ux_apartments_region_code,priority:2,where:external_code IS NOT NULL AND deleted = false"`
	Available    bool         `json:"available" gorm:"not null;default:true"`
	Deleted      bool         `json:"-" gorm:"not null;default:false"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Apartment) TableName() string { return "apartments" }

// Detail carries the master-list attributes collected per complex.
type Detail struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	ApartmentID    snowflake.ID `json:"apartment_id" gorm:"not null;uniqueIndex:ux_apartment_details_apartment"`
	HouseholdCount int          `json:"household_count" gorm:"not null;default:0"`
	BuildYear      int          `json:"build_year" gorm:"not null;default:0"`
	HeatingType    string       `json:"heating_type" gorm:"type:text"`
	HallwayType    string       `json:"hallway_type" gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Detail) TableName() string { return "apartment_details" }
