// Package payments stores the settlement recorded when a rental is returned.
package payments

import (
	"context"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentDTO struct {
	ID          uint                `json:"id"`
	RentalID    uint                `json:"rental_id"`
	Amount      decimal.Decimal     `json:"amount"`
	PaymentDate time.Time           `json:"payment_date"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
}

func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:          p.ID,
		RentalID:    p.RentalID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Method:      p.Method,
		Status:      p.Status,
	}
}

// Repository provides access to payments.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the payment. The unique rental_id index rejects a second
// payment for the same rental.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	return r.DB(ctx).Create(p).Error
}

func (r *Repository) FindByRentalID(ctx context.Context, rentalID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB(ctx).Where("rental_id = ?", rentalID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CountByRentalID(ctx context.Context, rentalID uint) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Payment{}).Where("rental_id = ?", rentalID).Count(&count).Error
	return count, err
}
