package service

import (
	"context"
	"time"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/pkg/db/option"
	"github.com/aptrend/aptrend/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo aptdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo aptdomain.Repository
}

func New(p ServiceParam) aptdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("apartment.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*aptdomain.Apartment, error) {
	if id == 0 {
		return nil, aptdomain.ErrInvalidID
	}
	apartment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, aptdomain.ErrApartmentNotFound
	}
	return apartment, nil
}

func (s *Service) ListByRegion(ctx context.Context, regionID snowflake.ID) ([]aptdomain.Apartment, error) {
	return s.repo.ListByRegion(ctx, regionID)
}

func (s *Service) List(ctx context.Context, req aptdomain.ListRequest) (aptdomain.ListResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var cursor *pagination.Cursor
	if token := req.PageToken; token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return aptdomain.ListResponse{}, aptdomain.ErrInvalidID
		}
		cursor = decoded
	}

	query := s.db.WithContext(ctx).Where("deleted = ?", false)
	if req.RegionID != 0 {
		query = query.Where("region_id = ?", req.RegionID)
	}
	query = option.ApplyPagination(cursor, pageSize).Apply(query)

	var rows []*aptdomain.Apartment
	if err := query.Find(&rows).Error; err != nil {
		return aptdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(a *aptdomain.Apartment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        a.ID.String(),
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(rows) > pageSize {
		rows = rows[:pageSize]
	}

	apartments := make([]aptdomain.Apartment, 0, len(rows))
	for _, row := range rows {
		apartments = append(apartments, *row)
	}

	return aptdomain.ListResponse{
		Apartments:    apartments,
		NextPageToken: pageInfo.NextPageToken,
		HasMore:       pageInfo.HasMore,
	}, nil
}

func (s *Service) SetAvailability(ctx context.Context, id snowflake.ID, available bool) error {
	apartment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateFlags(ctx, apartment.ID, available, apartment.Deleted)
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	apartment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateFlags(ctx, apartment.ID, false, true)
}
