package users

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Role        enums.Role `json:"role"`
	BranchID    *uint      `json:"branch_id,omitempty"`
	BranchName  *string    `json:"branch_name,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Phone        *string
	Address      *string
	Role         enums.Role
	BranchID     *uint
}

// UserRow is a user joined with its branch name.
type UserRow struct {
	models.User
	BranchName *string `gorm:"column:branch_name"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Phone:       u.Phone,
		Address:     u.Address,
		Role:        u.Role,
		BranchID:    u.BranchID,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func fromRow(r UserRow) UserDTO {
	dto := FromModel(&r.User)
	dto.BranchName = r.BranchName
	return *dto
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		Address:      c.Address,
		Role:         role,
		BranchID:     c.BranchID,
	}
}

// UpdateProfileRequest edits the caller's contact details.
type UpdateProfileRequest struct {
	Phone   *string `json:"phone" schema:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" schema:"address" sanitize:"text" validate:"omitempty,max=500"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" schema:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" schema:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" schema:"confirm_password" validate:"required"`
}

// UpdateRoleRequest is the admin's role/branch assignment for a user.
type UpdateRoleRequest struct {
	Role     string `json:"role" schema:"role" validate:"required"`
	BranchID *uint  `json:"branch_id" schema:"branch_id"`
}
