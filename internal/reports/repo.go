package reports

import (
	"context"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository runs the aggregate queries behind the report page. A nil branch
// aggregates across every branch.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type rentalTotals struct {
	Total       int64           `gorm:"column:total"`
	Active      int64           `gorm:"column:active"`
	Completed   int64           `gorm:"column:completed"`
	Income      decimal.Decimal `gorm:"column:income"`
	Outstanding decimal.Decimal `gorm:"column:outstanding"`
}

type purchaseTotals struct {
	Count    int64           `gorm:"column:purchase_count"`
	Expenses decimal.Decimal `gorm:"column:expenses"`
}

type groupCount struct {
	Key   string `gorm:"column:grp"`
	Count int64  `gorm:"column:cnt"`
}

func (r *Repository) RentalTotals(ctx context.Context, branchID *uint) (rentalTotals, error) {
	q := r.DB(ctx).Model(&models.Rental{}).Select(`
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
		COALESCE(SUM(CASE WHEN status = ? THEN total_cost ELSE 0 END), 0) AS income,
		COALESCE(SUM(CASE WHEN status = ? THEN total_cost ELSE 0 END), 0) AS outstanding`,
		enums.RentalStatusActive, enums.RentalStatusCompleted, enums.RentalStatusCompleted, enums.RentalStatusActive)
	if branchID != nil {
		q = q.Where("start_branch_id = ?", *branchID)
	}
	var out rentalTotals
	err := q.Scan(&out).Error
	return out, err
}

func (r *Repository) BicyclesByStatus(ctx context.Context, branchID *uint) ([]groupCount, error) {
	q := r.DB(ctx).Model(&models.Bicycle{}).Select("status AS grp, COUNT(*) AS cnt").Group("status")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var out []groupCount
	err := q.Scan(&out).Error
	return out, err
}

func (r *Repository) PurchaseTotals(ctx context.Context, branchID *uint) (purchaseTotals, error) {
	q := r.DB(ctx).Model(&models.Purchase{}).Select("COUNT(*) AS purchase_count, COALESCE(SUM(cost), 0) AS expenses")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var out purchaseTotals
	err := q.Scan(&out).Error
	return out, err
}

func (r *Repository) UsersByRole(ctx context.Context) ([]groupCount, error) {
	var out []groupCount
	err := r.DB(ctx).Model(&models.User{}).Select("role AS grp, COUNT(*) AS cnt").Group("role").Scan(&out).Error
	return out, err
}
