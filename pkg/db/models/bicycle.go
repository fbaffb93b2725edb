package models

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Bicycle is a rentable unit of inventory. Price is charged per PricingUnit.
type Bicycle struct {
	ID          uint                `gorm:"column:id;primaryKey"`
	Name        string              `gorm:"column:name;type:text;not null"`
	Description *string             `gorm:"column:description"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	PricingUnit enums.PricingUnit   `gorm:"column:pricing_unit;type:text;not null;default:'day'"`
	CategoryID  *uint               `gorm:"column:category_id;index"`
	BranchID    uint                `gorm:"column:branch_id;not null;index"`
	SupplierID  *uint               `gorm:"column:supplier_id;index"`
	ImageURL    *string             `gorm:"column:image_url"`
	Status      enums.BicycleStatus `gorm:"column:status;type:text;not null;default:'available';index"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
