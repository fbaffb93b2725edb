package purchases

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// PurchaseRequest describes the bicycle being acquired and what it cost.
// Price is the rental price per unit of the new bicycle.
type PurchaseRequest struct {
	Name         string `json:"name" schema:"name" validate:"required,max=120"`
	Description  string `json:"description" schema:"description" sanitize:"text" validate:"max=2000"`
	Price        string `json:"price" schema:"price" validate:"required"`
	PricingUnit  string `json:"pricing_unit" schema:"pricing_unit"`
	CategoryID   *uint  `json:"category_id" schema:"category_id"`
	ImageURL     string `json:"image_url" schema:"image_url" validate:"omitempty,url,max=500"`
	BranchID     uint   `json:"branch_id" schema:"branch_id" validate:"required"`
	SupplierID   uint   `json:"supplier_id" schema:"supplier_id" validate:"required"`
	Cost         string `json:"cost" schema:"cost" validate:"required"`
	Quantity     int    `json:"quantity" schema:"quantity" validate:"omitempty,min=1,max=1000"`
	PurchaseDate string `json:"purchase_date" schema:"purchase_date"`
}

type PurchaseDTO struct {
	ID           uint                 `json:"id"`
	SupplierID   uint                 `json:"supplier_id"`
	SupplierName string               `json:"supplier_name"`
	BranchID     uint                 `json:"branch_id"`
	BranchName   string               `json:"branch_name"`
	BicycleID    *uint                `json:"bicycle_id,omitempty"`
	BicycleName  *string              `json:"bicycle_name,omitempty"`
	Quantity     int                  `json:"quantity"`
	Cost         decimal.Decimal      `json:"cost"`
	PurchaseDate time.Time            `json:"purchase_date"`
	Status       enums.PurchaseStatus `json:"status"`
}

type purchaseRow struct {
	models.Purchase
	SupplierName string  `gorm:"column:supplier_name"`
	BranchName   string  `gorm:"column:branch_name"`
	BicycleName  *string `gorm:"column:bicycle_name"`
}

func fromRow(r purchaseRow) PurchaseDTO {
	return PurchaseDTO{
		ID:           r.ID,
		SupplierID:   r.SupplierID,
		SupplierName: r.SupplierName,
		BranchID:     r.BranchID,
		BranchName:   r.BranchName,
		BicycleID:    r.BicycleID,
		BicycleName:  r.BicycleName,
		Quantity:     r.Quantity,
		Cost:         r.Cost,
		PurchaseDate: r.PurchaseDate,
		Status:       r.Status,
	}
}
