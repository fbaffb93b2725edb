package rentals

import (
	"context"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository provides access to rentals.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Scope restricts rental queries to one customer or one start branch. Nil
// fields are not applied.
type Scope struct {
	UserID   *uint
	BranchID *uint
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	if s.UserID != nil {
		db = db.Where("rentals.user_id = ?", *s.UserID)
	}
	if s.BranchID != nil {
		db = db.Where("rentals.start_branch_id = ?", *s.BranchID)
	}
	return db
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("rentals").
		Select(`rentals.*,
			bicycles.name AS bicycle_name, bicycles.image_url AS bicycle_image_url, bicycles.price AS bicycle_price,
			branches.name AS branch_name,
			users.username AS username, users.email AS email, users.phone AS phone`).
		Joins("LEFT JOIN bicycles ON bicycles.id = rentals.bicycle_id").
		Joins("LEFT JOIN branches ON branches.id = rentals.start_branch_id").
		Joins("LEFT JOIN users ON users.id = rentals.user_id")
}

// List returns one page of rentals in scope, newest first.
func (r *Repository) List(ctx context.Context, scope Scope, params pagination.Params) ([]rentalRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Rental{}).Scopes(scope.apply).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []rentalRow
	err := r.joined(ctx).
		Scopes(scope.apply, repo.Paginate(params)).
		Order("rentals.start_date DESC, rentals.id DESC").
		Scan(&rows).Error
	return rows, total, err
}

func (r *Repository) FindDetails(ctx context.Context, id uint, scope Scope) (*rentalRow, error) {
	return repo.ScanOne[rentalRow](r.joined(ctx).Scopes(scope.apply).Where("rentals.id = ?", id))
}

// FindOpenForUpdate locks the rental row when it is in scope and not yet returned.
func (r *Repository) FindOpenForUpdate(ctx context.Context, id uint, scope Scope) (*models.Rental, error) {
	var rental models.Rental
	err := r.DB(ctx).
		Scopes(repo.ForUpdate, scope.apply).
		Where("rentals.id = ? AND rentals.return_date IS NULL", id).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *Repository) Create(ctx context.Context, rental *models.Rental) error {
	return r.DB(ctx).Create(rental).Error
}

// Complete closes an open rental. Zero affected rows means it was already returned.
func (r *Repository) Complete(ctx context.Context, id uint, at time.Time, total decimal.Decimal) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Rental{}).
		Where("id = ? AND return_date IS NULL", id).
		Updates(map[string]any{
			"return_date": at,
			"status":      enums.RentalStatusCompleted,
			"total_cost":  total,
		})
	return res.RowsAffected, res.Error
}
