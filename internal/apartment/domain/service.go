package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Apartment, error)
	ListByRegion(ctx context.Context, regionID snowflake.ID) ([]Apartment, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	SetAvailability(ctx context.Context, id snowflake.ID, available bool) error
	SoftDelete(ctx context.Context, id snowflake.ID) error
}

type Repository interface {
	Create(ctx context.Context, apartment *Apartment) error
	// UpsertByExternalCode inserts unless a non-deleted row already holds the
	// same (region, external code); reports whether a row was written.
	UpsertByExternalCode(ctx context.Context, apartment *Apartment) (bool, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Apartment, error)
	FindByExternalCode(ctx context.Context, regionID snowflake.ID, code string) (*Apartment, error)
	ListByRegion(ctx context.Context, regionID snowflake.ID) ([]Apartment, error)
	UpdateFlags(ctx context.Context, id snowflake.ID, available, deleted bool) error
	UpsertDetail(ctx context.Context, detail *Detail) error
}

type ListRequest struct {
	RegionID  snowflake.ID
	PageToken string
	PageSize  int
}

type ListResponse struct {
	Apartments    []Apartment `json:"apartments"`
	NextPageToken string      `json:"next_page_token"`
	HasMore       bool        `json:"has_more"`
}

var (
	ErrApartmentNotFound = errors.New("apartment_not_found")
	ErrInvalidID         = errors.New("invalid_apartment_id")
)
