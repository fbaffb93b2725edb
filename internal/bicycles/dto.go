package bicycles

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// BicycleDTO is a bicycle joined with the names of its branch, category and supplier.
type BicycleDTO struct {
	ID           uint                `json:"id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	Price        decimal.Decimal     `json:"price"`
	PricingUnit  enums.PricingUnit   `json:"pricing_unit"`
	Status       enums.BicycleStatus `json:"status"`
	ImageURL     *string             `json:"image_url,omitempty"`
	BranchID     uint                `json:"branch_id"`
	BranchName   string              `json:"branch_name"`
	CategoryID   *uint               `json:"category_id,omitempty"`
	CategoryName *string             `json:"category_name,omitempty"`
	SupplierID   *uint               `json:"supplier_id,omitempty"`
	SupplierName *string             `json:"supplier_name,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CatalogFilter narrows the browse listing. A nil BranchID means "not given"
// and falls back to the actor's home branch; zero means every branch.
type CatalogFilter struct {
	BranchID   *uint
	CategoryID *uint
}

// Filters lists the choices offered by the browse page.
type Filters struct {
	Branches   []branches.Option   `json:"branches"`
	Categories []categories.Option `json:"categories"`
}

// BicycleRequest is the create/update payload of the bicycle management page.
// Price travels as a string so decimal precision survives form decoding.
type BicycleRequest struct {
	Name        string `json:"name" schema:"name" validate:"required,max=120"`
	Description string `json:"description" schema:"description" sanitize:"text" validate:"max=2000"`
	Price       string `json:"price" schema:"price" validate:"required"`
	PricingUnit string `json:"pricing_unit" schema:"pricing_unit"`
	BranchID    *uint  `json:"branch_id" schema:"branch_id"`
	CategoryID  *uint  `json:"category_id" schema:"category_id"`
	SupplierID  *uint  `json:"supplier_id" schema:"supplier_id"`
	ImageURL    string `json:"image_url" schema:"image_url" validate:"omitempty,url,max=500"`
	Status      string `json:"status" schema:"status"`
}

type bicycleRow struct {
	models.Bicycle
	BranchName   string  `gorm:"column:branch_name"`
	CategoryName *string `gorm:"column:category_name"`
	SupplierName *string `gorm:"column:supplier_name"`
}

func fromRow(r bicycleRow) BicycleDTO {
	return BicycleDTO{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		PricingUnit:  r.PricingUnit,
		Status:       r.Status,
		ImageURL:     r.ImageURL,
		BranchID:     r.BranchID,
		BranchName:   r.BranchName,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		SupplierID:   r.SupplierID,
		SupplierName: r.SupplierName,
		CreatedAt:    r.CreatedAt,
	}
}

func fromRows(rows []bicycleRow) []BicycleDTO {
	out := make([]BicycleDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out
}
