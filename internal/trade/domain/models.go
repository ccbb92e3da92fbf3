package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SaleTransaction is one filed sale. Rows are write-once: re-ingestion after
// a repair recreates rather than edits them. The only later mutation is the
// cancellation flag, which arrives as a follow-up record from the source.
type SaleTransaction struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ApartmentID snowflake.ID `json:"apartment_id" gorm:"not null;index:ix_sales_apartment;uniqueIndex:ux_sales_natural,priority:1"`
	RegionID    snowflake.ID `json:"region_id" gorm:"not null;index:ix_sales_region"`
	Period      string       `json:"period" gorm:"type:varchar(6);not null;index:ix_sales_period"`
	DealDate    time.Time    `json:"deal_date" gorm:"not null;uniqueIndex:ux_sales_natural,priority:2"`
	DealAmount  int64        `json:"deal_amount" gorm:"not null;uniqueIndex:ux_sales_natural,priority:3"`
	AreaSqm     float64      `json:"area_sqm" gorm:"not null;uniqueIndex:ux_sales_natural,priority:4"`
	Floor       int          `json:"floor" gorm:"not null;uniqueIndex:ux_sales_natural,priority:5"`
	Canceled    bool         `json:"canceled" gorm:"not null;default:false"`
	ExternalSeq string       `json:"external_seq,omitempty" gorm:"type:varchar(64);index:ix_sales_external_seq"`
	Deleted     bool         `json:"-" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SaleTransaction) TableName() string { return "sale_transactions" }

// RentTransaction is one filed lease. Rent sources rarely carry a reliable
// external sequence, so matching leans on the name tiers.
type RentTransaction struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ApartmentID  snowflake.ID `json:"apartment_id" gorm:"not null;index:ix_rents_apartment;uniqueIndex:ux_rents_natural,priority:1"`
	RegionID     snowflake.ID `json:"region_id" gorm:"not null;index:ix_rents_region"`
	Period       string       `json:"period" gorm:"type:varchar(6);not null;index:ix_rents_period"`
	ContractDate time.Time    `json:"contract_date" gorm:"not null;uniqueIndex:ux_rents_natural,priority:2"`
	Deposit      int64        `json:"deposit" gorm:"not null;uniqueIndex:ux_rents_natural,priority:3"`
	MonthlyRent  int64        `json:"monthly_rent" gorm:"not null;uniqueIndex:ux_rents_natural,priority:4"`
	AreaSqm      float64      `json:"area_sqm" gorm:"not null;uniqueIndex:ux_rents_natural,priority:5"`
	Floor        int          `json:"floor" gorm:"not null;uniqueIndex:ux_rents_natural,priority:6"`
	Deleted      bool         `json:"-" gorm:"not null;default:false"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RentTransaction) TableName() string { return "rent_transactions" }

// SeqMapping pairs an external sale sequence with the internal apartment it
// resolved to. It backs the startup bulk load of the external-id cache.
type SeqMapping struct {
	ExternalSeq string
	ApartmentID snowflake.ID
}
