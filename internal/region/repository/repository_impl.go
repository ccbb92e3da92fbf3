package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"

	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/pkg/repository"
	"gorm.io/gorm"
)

type regionRepo struct {
	db    *gorm.DB
	store repository.Repository[regiondomain.Region]
}

func Provide(db *gorm.DB) regiondomain.Repository {
	return &regionRepo{
		db:    db,
		store: repository.ProvideStore[regiondomain.Region](db),
	}
}

func (r *regionRepo) Upsert(ctx context.Context, region *regiondomain.Region) (bool, error) {
	return r.store.Upsert(ctx, region, repository.UpsertKey{
		Columns: []string{"code"},
		Policy:  repository.ConflictSkip,
	})
}

func (r *regionRepo) FindByID(ctx context.Context, id snowflake.ID) (*regiondomain.Region, error) {
	var region regiondomain.Region
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		First(&region).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

func (r *regionRepo) FindByCode(ctx context.Context, code string) (*regiondomain.Region, error) {
	var region regiondomain.Region
	err := r.db.WithContext(ctx).
		Where("code = ? AND deleted = ?", code, false).
		First(&region).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

func (r *regionRepo) FindByDistrictCode(ctx context.Context, districtCode string) (*regiondomain.Region, error) {
	var region regiondomain.Region
	err := r.db.WithContext(ctx).
		Where("code LIKE ? AND code LIKE ? AND deleted = ?", districtCode+"%", "%00000", false).
		Order("code ASC").
		First(&region).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

func (r *regionRepo) ListDistricts(ctx context.Context) ([]regiondomain.Region, error) {
	var regions []regiondomain.Region
	err := r.db.WithContext(ctx).
		Where("code LIKE ? AND deleted = ?", "%00000", false).
		Order("code ASC").
		Find(&regions).Error
	if err != nil {
		return nil, err
	}
	out := regions[:0]
	for _, region := range regions {
		if regiondomain.IsDistrict(region.Code) {
			out = append(out, region)
		}
	}
	return out, nil
}
