package repository

import (
	"context"

	"github.com/aptrend/aptrend/pkg/db/option"
	"gorm.io/gorm"
)

// ConflictPolicy selects the behavior when an upsert hits an existing row
// with the same natural key.
type ConflictPolicy int

const (
	// ConflictSkip leaves the existing row untouched and reports a duplicate.
	ConflictSkip ConflictPolicy = iota
	// ConflictUpdate overwrites the listed columns on the existing row.
	ConflictUpdate
)

// Repository is the generic typed store shared by every entity repository.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID string, resource any) error
	Delete(ctx context.Context, resourceID string) error
	Count(ctx context.Context, query *T) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error

	// Upsert inserts resource unless a row with the same natural key exists.
	// Returns true when a new row was written.
	Upsert(ctx context.Context, resource *T, key UpsertKey) (bool, error)
}

// UpsertKey describes the natural key and conflict behavior for one entity.
type UpsertKey struct {
	Columns       []string
	Policy        ConflictPolicy
	UpdateColumns []string
}
