package rentals

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/payments"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// RentRequest is the body of POST /rent. Dates accept YYYY-MM-DD or a date-time.
type RentRequest struct {
	BicycleID uint   `json:"bicycle_id" schema:"bicycle_id" validate:"required"`
	StartDate string `json:"start_date" schema:"start_date" validate:"required"`
	EndDate   string `json:"end_date" schema:"end_date" validate:"required"`
}

type RentResult struct {
	RentalID    uint              `json:"rental_id"`
	BicycleID   uint              `json:"bicycle_id"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	Units       int64             `json:"units"`
	PricingUnit enums.PricingUnit `json:"pricing_unit"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
}

// ReturnResult reports the outcome of a return. Returned is false when there
// was no open rental to close.
type ReturnResult struct {
	Returned  bool             `json:"returned"`
	Message   string           `json:"message"`
	RentalID  uint             `json:"rental_id,omitempty"`
	TotalCost *decimal.Decimal `json:"total_cost,omitempty"`
	Units     int64            `json:"units,omitempty"`
	PaymentID uint             `json:"payment_id,omitempty"`
}

// CustomerContact is only ever filled in for staff views.
type CustomerContact struct {
	UserID   uint    `json:"user_id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
}

type RentalDTO struct {
	ID              uint               `json:"id"`
	BicycleID       uint               `json:"bicycle_id"`
	BicycleName     string             `json:"bicycle_name"`
	BicycleImageURL *string            `json:"bicycle_image_url,omitempty"`
	StartBranchID   uint               `json:"start_branch_id"`
	BranchName      string             `json:"branch_name"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	ReturnDate      *time.Time         `json:"return_date,omitempty"`
	TotalCost       decimal.Decimal    `json:"total_cost"`
	PricingUnit     enums.PricingUnit  `json:"pricing_unit"`
	Status          enums.RentalStatus `json:"status"`
	Customer        *CustomerContact   `json:"customer,omitempty"`
}

type RentalDetailsDTO struct {
	RentalDTO
	BicyclePrice decimal.Decimal      `json:"bicycle_price"`
	Payment      *payments.PaymentDTO `json:"payment,omitempty"`
}

type rentalRow struct {
	models.Rental
	BicycleName     string          `gorm:"column:bicycle_name"`
	BicycleImageURL *string         `gorm:"column:bicycle_image_url"`
	BicyclePrice    decimal.Decimal `gorm:"column:bicycle_price"`
	BranchName      string          `gorm:"column:branch_name"`
	Username        string          `gorm:"column:username"`
	Email           string          `gorm:"column:email"`
	Phone           *string         `gorm:"column:phone"`
}

func fromRow(r rentalRow, withContact bool) RentalDTO {
	dto := RentalDTO{
		ID:              r.ID,
		BicycleID:       r.BicycleID,
		BicycleName:     r.BicycleName,
		BicycleImageURL: r.BicycleImageURL,
		StartBranchID:   r.StartBranchID,
		BranchName:      r.BranchName,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		ReturnDate:      r.ReturnDate,
		TotalCost:       r.TotalCost,
		PricingUnit:     r.PricingUnit,
		Status:          r.Status,
	}
	if withContact {
		dto.Customer = &CustomerContact{
			UserID:   r.UserID,
			Username: r.Username,
			Email:    r.Email,
			Phone:    r.Phone,
		}
	}
	return dto
}

func fromRows(rows []rentalRow, withContact bool) []RentalDTO {
	out := make([]RentalDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r, withContact))
	}
	return out
}
