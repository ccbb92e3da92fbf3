package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// WithTrx returns a repository bound to tx so a page batch commits
	// atomically.
	WithTrx(tx *gorm.DB) Repository

	// InsertSale persists a sale. With allowDuplicate false an existing row
	// with the same natural key is skipped; returns whether a row was written.
	InsertSale(ctx context.Context, sale *SaleTransaction, allowDuplicate bool) (bool, error)
	InsertRent(ctx context.Context, rent *RentTransaction, allowDuplicate bool) (bool, error)

	// MarkSaleCanceled flags the sale matching the natural key. Missing rows
	// are not an error: the cancellation may precede the row in a resumed run.
	MarkSaleCanceled(ctx context.Context, sale *SaleTransaction) (bool, error)

	// DeleteByApartment hard-deletes every transaction row for one apartment.
	DeleteByApartment(ctx context.Context, apartmentID snowflake.ID) (salesDeleted, rentsDeleted int64, err error)

	CountByApartment(ctx context.Context, apartmentID snowflake.ID) (sales, rents int64, err error)

	// FindApartmentByExternalSeq resolves a sale external sequence to its
	// apartment, 0 when unknown.
	FindApartmentByExternalSeq(ctx context.Context, externalSeq string) (snowflake.ID, error)

	// ListSeqMappings returns every known (external sequence, apartment)
	// pair for the external-id cache bulk load.
	ListSeqMappings(ctx context.Context) ([]SeqMapping, error)
}

var ErrInvalidTransaction = errors.New("invalid_transaction")
