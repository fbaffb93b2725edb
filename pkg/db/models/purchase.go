package models

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Purchase records the procurement of a bicycle from a supplier.
type Purchase struct {
	ID           uint                 `gorm:"column:id;primaryKey"`
	SupplierID   uint                 `gorm:"column:supplier_id;not null;index"`
	BranchID     uint                 `gorm:"column:branch_id;not null;index"`
	BicycleID    *uint                `gorm:"column:bicycle_id;index"`
	Quantity     int                  `gorm:"column:quantity;not null;default:1"`
	Cost         decimal.Decimal      `gorm:"column:cost;type:numeric(12,2);not null"`
	PurchaseDate time.Time            `gorm:"column:purchase_date;not null"`
	Status       enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}
