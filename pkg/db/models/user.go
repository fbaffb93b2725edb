package models

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
)

// User represents an account: customers and every staff role.
type User struct {
	ID           uint       `gorm:"column:id;primaryKey"`
	Username     string     `gorm:"column:username;type:text;not null;uniqueIndex"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        *string    `gorm:"column:phone"`
	Address      *string    `gorm:"column:address"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:'customer'"`
	BranchID     *uint      `gorm:"column:branch_id;index"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
