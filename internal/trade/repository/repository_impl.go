package repository

import (
	"context"

	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
	"github.com/aptrend/aptrend/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type tradeRepo struct {
	db        *gorm.DB
	saleStore repository.Repository[tradedomain.SaleTransaction]
	rentStore repository.Repository[tradedomain.RentTransaction]
}

func Provide(db *gorm.DB) tradedomain.Repository {
	return &tradeRepo{
		db:        db,
		saleStore: repository.ProvideStore[tradedomain.SaleTransaction](db),
		rentStore: repository.ProvideStore[tradedomain.RentTransaction](db),
	}
}

func (r *tradeRepo) WithTrx(tx *gorm.DB) tradedomain.Repository {
	return &tradeRepo{
		db:        tx,
		saleStore: r.saleStore.WithTrx(tx),
		rentStore: r.rentStore.WithTrx(tx),
	}
}

var saleNaturalKey = repository.UpsertKey{
	Columns: []string{"apartment_id", "deal_date", "deal_amount", "area_sqm", "floor"},
	Policy:  repository.ConflictSkip,
}

var rentNaturalKey = repository.UpsertKey{
	Columns: []string{"apartment_id", "contract_date", "deposit", "monthly_rent", "area_sqm", "floor"},
	Policy:  repository.ConflictSkip,
}

func (r *tradeRepo) InsertSale(ctx context.Context, sale *tradedomain.SaleTransaction, allowDuplicate bool) (bool, error) {
	if sale == nil || sale.ApartmentID == 0 {
		return false, tradedomain.ErrInvalidTransaction
	}
	if allowDuplicate {
		if err := r.saleStore.Create(ctx, sale); err != nil {
			return false, err
		}
		return true, nil
	}
	return r.saleStore.Upsert(ctx, sale, saleNaturalKey)
}

func (r *tradeRepo) InsertRent(ctx context.Context, rent *tradedomain.RentTransaction, allowDuplicate bool) (bool, error) {
	if rent == nil || rent.ApartmentID == 0 {
		return false, tradedomain.ErrInvalidTransaction
	}
	if allowDuplicate {
		if err := r.rentStore.Create(ctx, rent); err != nil {
			return false, err
		}
		return true, nil
	}
	return r.rentStore.Upsert(ctx, rent, rentNaturalKey)
}

func (r *tradeRepo) MarkSaleCanceled(ctx context.Context, sale *tradedomain.SaleTransaction) (bool, error) {
	if sale == nil || sale.ApartmentID == 0 {
		return false, tradedomain.ErrInvalidTransaction
	}
	result := r.db.WithContext(ctx).
		Model(&tradedomain.SaleTransaction{}).
		Where("apartment_id = ? AND deal_date = ? AND deal_amount = ? AND area_sqm = ? AND floor = ?",
			sale.ApartmentID, sale.DealDate, sale.DealAmount, sale.AreaSqm, sale.Floor).
		Update("canceled", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *tradeRepo) DeleteByApartment(ctx context.Context, apartmentID snowflake.ID) (int64, int64, error) {
	sales := r.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Delete(&tradedomain.SaleTransaction{})
	if sales.Error != nil {
		return 0, 0, sales.Error
	}
	rents := r.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Delete(&tradedomain.RentTransaction{})
	if rents.Error != nil {
		return sales.RowsAffected, 0, rents.Error
	}
	return sales.RowsAffected, rents.RowsAffected, nil
}

func (r *tradeRepo) CountByApartment(ctx context.Context, apartmentID snowflake.ID) (int64, int64, error) {
	var sales, rents int64
	err := r.db.WithContext(ctx).
		Model(&tradedomain.SaleTransaction{}).
		Where("apartment_id = ?", apartmentID).
		Count(&sales).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&tradedomain.RentTransaction{}).
		Where("apartment_id = ?", apartmentID).
		Count(&rents).Error
	if err != nil {
		return sales, 0, err
	}
	return sales, rents, nil
}

func (r *tradeRepo) FindApartmentByExternalSeq(ctx context.Context, externalSeq string) (snowflake.ID, error) {
	if externalSeq == "" {
		return 0, nil
	}
	var sale tradedomain.SaleTransaction
	err := r.db.WithContext(ctx).
		Where("external_seq = ? AND deleted = ?", externalSeq, false).
		First(&sale).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return sale.ApartmentID, nil
}

func (r *tradeRepo) ListSeqMappings(ctx context.Context) ([]tradedomain.SeqMapping, error) {
	var mappings []tradedomain.SeqMapping
	err := r.db.WithContext(ctx).
		Model(&tradedomain.SaleTransaction{}).
		Select("external_seq, apartment_id").
		Where("external_seq <> '' AND deleted = ?", false).
		Group("external_seq, apartment_id").
		Scan(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}
