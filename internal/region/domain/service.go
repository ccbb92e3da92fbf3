package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ResolveCode maps a region code (full 10-digit or 5-digit district
	// prefix) to its Region. Returns ErrRegionNotFound for unknown codes.
	ResolveCode(ctx context.Context, code string) (*Region, error)
	// ListDistricts returns every non-deleted district-tier region.
	ListDistricts(ctx context.Context) ([]Region, error)
}

type Repository interface {
	Upsert(ctx context.Context, region *Region) (bool, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Region, error)
	FindByCode(ctx context.Context, code string) (*Region, error)
	FindByDistrictCode(ctx context.Context, districtCode string) (*Region, error)
	ListDistricts(ctx context.Context) ([]Region, error)
}

var (
	ErrRegionNotFound = errors.New("region_not_found")
	ErrInvalidCode    = errors.New("invalid_region_code")
)
