package models

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Payment settles a completed rental. One row per rental.
type Payment struct {
	ID          uint                `gorm:"column:id;primaryKey"`
	RentalID    uint                `gorm:"column:rental_id;not null;uniqueIndex"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate time.Time           `gorm:"column:payment_date;not null"`
	Method      enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash'"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
