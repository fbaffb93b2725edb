package models

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Rental records one customer's use of one bicycle. At most one rental per
// bicycle may be active.
type Rental struct {
	ID            uint               `gorm:"column:id;primaryKey"`
	UserID        uint               `gorm:"column:user_id;not null;index"`
	BicycleID     uint               `gorm:"column:bicycle_id;not null;index;index:idx_rentals_one_active_per_bicycle,unique,where:status = 'active'"`
	StartBranchID uint               `gorm:"column:start_branch_id;not null;index"`
	StartDate     time.Time          `gorm:"column:start_date;not null"`
	EndDate       time.Time          `gorm:"column:end_date;not null"`
	ReturnDate    *time.Time         `gorm:"column:return_date"`
	TotalCost     decimal.Decimal    `gorm:"column:total_cost;type:numeric(12,2);not null"`
	PricingUnit   enums.PricingUnit  `gorm:"column:pricing_unit;type:text;not null;default:'day'"`
	Status        enums.RentalStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
