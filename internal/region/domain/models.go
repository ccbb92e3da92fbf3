package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Region is a canonical geographic unit. Codes are fixed-width 10 digits;
// trailing zero blocks denote higher tiers (city > district > neighborhood).
type Region struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Code      string       `json:"code" gorm:"type:varchar(10);not null;uniqueIndex:ux_regions_code"`
	CityName  string       `json:"city_name" gorm:"type:text;not null"`
	Deleted   bool         `json:"-" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Region) TableName() string { return "regions" }

// DistrictCode returns the 5-digit prefix the transaction sources key by.
func (r Region) DistrictCode() string {
	if len(r.Code) < 5 {
		return r.Code
	}
	return r.Code[:5]
}

// IsDistrict reports whether the code sits at the district (sigungu) tier:
// the neighborhood block is all zeros but the district block is not.
func IsDistrict(code string) bool {
	if len(code) != 10 {
		return false
	}
	return code[5:] == "00000" && code[2:5] != "000"
}
