package users

import (
	"context"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIdentifier matches either the username or the email.
func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports whether either value is already taken.
func (r *Repository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdateContact(ctx context.Context, id uint, phone, address *string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"phone": phone, "address": address}).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// UpdateRole sets role and branch together; branchID nil clears the branch.
func (r *Repository) UpdateRole(ctx context.Context, id uint, role enums.Role, branchID *uint) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "branch_id": branchID}).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.User{})
	return res.RowsAffected, res.Error
}

// List returns one page of users with their branch names, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]UserRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []UserRow
	err := r.DB(ctx).
		Table("users").
		Select("users.*, branches.name AS branch_name").
		Joins("LEFT JOIN branches ON branches.id = users.branch_id").
		Order("users.created_at DESC, users.id DESC").
		Scopes(repo.Paginate(params)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountActiveRentals counts the user's open rentals.
func (r *Repository) CountActiveRentals(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Rental{}).
		Where("user_id = ? AND status = ?", userID, enums.RentalStatusActive).
		Count(&count).Error
	return count, err
}

// CountRentals counts every rental the user ever made.
func (r *Repository) CountRentals(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Rental{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
