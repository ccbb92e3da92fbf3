package repository

import (
	"context"

	statdomain "github.com/aptrend/aptrend/internal/statistic/domain"
	"github.com/aptrend/aptrend/pkg/repository"
	"gorm.io/gorm"
)

type statisticRepo struct {
	indexStore  repository.Repository[statdomain.PriceIndex]
	volumeStore repository.Repository[statdomain.TradingVolume]
}

func Provide(db *gorm.DB) statdomain.Repository {
	return &statisticRepo{
		indexStore:  repository.ProvideStore[statdomain.PriceIndex](db),
		volumeStore: repository.ProvideStore[statdomain.TradingVolume](db),
	}
}

func (r *statisticRepo) UpsertPriceIndex(ctx context.Context, index *statdomain.PriceIndex) (bool, error) {
	return r.indexStore.Upsert(ctx, index, repository.UpsertKey{
		Columns:       []string{"table_id", "region_code", "period"},
		Policy:        repository.ConflictUpdate,
		UpdateColumns: []string{"value", "updated_at"},
	})
}

func (r *statisticRepo) UpsertTradingVolume(ctx context.Context, volume *statdomain.TradingVolume) (bool, error) {
	return r.volumeStore.Upsert(ctx, volume, repository.UpsertKey{
		Columns:       []string{"region_code", "period"},
		Policy:        repository.ConflictUpdate,
		UpdateColumns: []string{"volume", "updated_at"},
	})
}
