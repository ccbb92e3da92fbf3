package option

import (
	"gorm.io/gorm"

	"github.com/aptrend/aptrend/pkg/db/pagination"
)

// QueryOption mutates a gorm query before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyPagination applies id-cursor pagination: rows come back in id order
// and the query fetches one extra row so the caller can detect a following
// page. Callers decode the page token themselves so a bad token surfaces as
// their own validation error.
func ApplyPagination(cursor *pagination.Cursor, pageSize int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			pageSize = 50
		}
		if cursor != nil && cursor.ID != "" {
			db = db.Where("id > ?", cursor.ID)
		}
		return db.Order("id ASC").Limit(pageSize + 1)
	})
}
