package repo

import (
	"context"

	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base is embedded by every domain repository. Constructing it from a
// transaction handle makes all of the repository's queries join that tx.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Paginate applies the limit and offset of a page request.
func Paginate(p pagination.Params) func(*gorm.DB) *gorm.DB {
	n := p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n.Limit).Offset(n.Offset())
	}
}

// ForUpdate row-locks the selected rows until the surrounding tx ends.
// SQLite ignores the clause; its writer lock already serialises the tx.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ScanOne scans the first row of a joined projection. Raw Scan never reports
// a missing row, so an empty result is mapped to gorm.ErrRecordNotFound.
func ScanOne[T any](q *gorm.DB) (*T, error) {
	var rows []T
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
