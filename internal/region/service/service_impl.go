package service

import (
	"context"
	"strings"

	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log  *zap.Logger
	Repo regiondomain.Repository
}

type Service struct {
	log  *zap.Logger
	repo regiondomain.Repository
}

func New(p ServiceParam) regiondomain.Service {
	return &Service{
		log:  p.Log.Named("region.service"),
		repo: p.Repo,
	}
}

func (s *Service) ResolveCode(ctx context.Context, code string) (*regiondomain.Region, error) {
	code = strings.TrimSpace(code)
	switch len(code) {
	case 10:
		region, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if region == nil {
			// Sources sometimes send a full code for a region we only
			// track at the district tier.
			return s.resolveDistrict(ctx, code[:5])
		}
		return region, nil
	case 5:
		return s.resolveDistrict(ctx, code)
	default:
		return nil, regiondomain.ErrInvalidCode
	}
}

func (s *Service) resolveDistrict(ctx context.Context, districtCode string) (*regiondomain.Region, error) {
	region, err := s.repo.FindByDistrictCode(ctx, districtCode)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, regiondomain.ErrRegionNotFound
	}
	return region, nil
}

func (s *Service) ListDistricts(ctx context.Context) ([]regiondomain.Region, error) {
	return s.repo.ListDistricts(ctx)
}
