package repository

import (
	"context"
	"time"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/pkg/db"
	"github.com/aptrend/aptrend/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type apartmentRepo struct {
	db          *gorm.DB
	store       repository.Repository[aptdomain.Apartment]
	detailStore repository.Repository[aptdomain.Detail]
}

func Provide(db *gorm.DB) aptdomain.Repository {
	return &apartmentRepo{
		db:          db,
		store:       repository.ProvideStore[aptdomain.Apartment](db),
		detailStore: repository.ProvideStore[aptdomain.Detail](db),
	}
}

func (r *apartmentRepo) Create(ctx context.Context, apartment *aptdomain.Apartment) error {
	return r.store.Create(ctx, apartment)
}

func (r *apartmentRepo) UpsertByExternalCode(ctx context.Context, apartment *aptdomain.Apartment) (bool, error) {
	if apartment.ExternalCode == nil || *apartment.ExternalCode == "" {
		if err := r.store.Create(ctx, apartment); err != nil {
			return false, err
		}
		return true, nil
	}
	existing, err := r.FindByExternalCode(ctx, apartment.RegionID, *apartment.ExternalCode)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	// ux_apartments_region_code is a partial index, which conflict target
	// inference cannot match. Insert and classify the race instead.
	if err := r.store.Create(ctx, apartment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *apartmentRepo) FindByID(ctx context.Context, id snowflake.ID) (*aptdomain.Apartment, error) {
	var apartment aptdomain.Apartment
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		First(&apartment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &apartment, nil
}

func (r *apartmentRepo) FindByExternalCode(ctx context.Context, regionID snowflake.ID, code string) (*aptdomain.Apartment, error) {
	var apartment aptdomain.Apartment
	err := r.db.WithContext(ctx).
		Where("region_id = ? AND external_code = ? AND deleted = ?", regionID, code, false).
		First(&apartment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &apartment, nil
}

func (r *apartmentRepo) ListByRegion(ctx context.Context, regionID snowflake.ID) ([]aptdomain.Apartment, error) {
	var apartments []aptdomain.Apartment
	err := r.db.WithContext(ctx).
		Where("region_id = ? AND deleted = ?", regionID, false).
		Order("id ASC").
		Find(&apartments).Error
	return apartments, err
}

func (r *apartmentRepo) UpdateFlags(ctx context.Context, id snowflake.ID, available, deleted bool) error {
	return r.db.WithContext(ctx).
		Model(&aptdomain.Apartment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available":  available,
			"deleted":    deleted,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *apartmentRepo) UpsertDetail(ctx context.Context, detail *aptdomain.Detail) error {
	_, err := r.detailStore.Upsert(ctx, detail, repository.UpsertKey{
		Columns:       []string{"apartment_id"},
		Policy:        repository.ConflictUpdate,
		UpdateColumns: []string{"household_count", "build_year", "heating_type", "hallway_type", "updated_at"},
	})
	return err
}
