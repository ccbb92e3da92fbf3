package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PriceIndex is one point of a published housing price index series.
// Re-publication of the same (table, region, period) refreshes the value.
type PriceIndex struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	TableID    string       `json:"table_id" gorm:"type:varchar(32);not null;uniqueIndex:ux_price_indices_natural,priority:1"`
	RegionCode string       `json:"region_code" gorm:"type:varchar(10);not null;uniqueIndex:ux_price_indices_natural,priority:2"`
	Period     string       `json:"period" gorm:"type:varchar(6);not null;uniqueIndex:ux_price_indices_natural,priority:3"`
	Value      float64      `json:"value" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PriceIndex) TableName() string { return "price_indices" }

// TradingVolume is the published monthly count of trades per region.
type TradingVolume struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	RegionCode string       `json:"region_code" gorm:"type:varchar(10);not null;uniqueIndex:ux_trading_volumes_natural,priority:1"`
	Period     string       `json:"period" gorm:"type:varchar(6);not null;uniqueIndex:ux_trading_volumes_natural,priority:2"`
	Volume     int64        `json:"volume" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TradingVolume) TableName() string { return "trading_volumes" }

type Repository interface {
	// UpsertPriceIndex refreshes the value on natural-key conflict.
	UpsertPriceIndex(ctx context.Context, index *PriceIndex) (bool, error)
	UpsertTradingVolume(ctx context.Context, volume *TradingVolume) (bool, error)
}
