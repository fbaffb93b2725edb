package bicycles

import (
	"context"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository provides access to bicycles.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository bound to db, which may be a transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListQuery narrows a bicycle listing. Nil fields are not applied.
type ListQuery struct {
	BranchID   *uint
	CategoryID *uint
	Status     *enums.BicycleStatus
}

func (q ListQuery) scope(db *gorm.DB) *gorm.DB {
	if q.BranchID != nil {
		db = db.Where("bicycles.branch_id = ?", *q.BranchID)
	}
	if q.CategoryID != nil {
		db = db.Where("bicycles.category_id = ?", *q.CategoryID)
	}
	if q.Status != nil {
		db = db.Where("bicycles.status = ?", *q.Status)
	}
	return db
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("bicycles").
		Select("bicycles.*, branches.name AS branch_name, categories.name AS category_name, suppliers.name AS supplier_name").
		Joins("LEFT JOIN branches ON branches.id = bicycles.branch_id").
		Joins("LEFT JOIN categories ON categories.id = bicycles.category_id").
		Joins("LEFT JOIN suppliers ON suppliers.id = bicycles.supplier_id")
}

// List returns one page of bicycles, newest first, and the total matching q.
func (r *Repository) List(ctx context.Context, q ListQuery, params pagination.Params) ([]bicycleRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Bicycle{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []bicycleRow
	err := r.joined(ctx).
		Scopes(q.scope, repo.Paginate(params)).
		Order("bicycles.created_at DESC, bicycles.id DESC").
		Scan(&rows).Error
	return rows, total, err
}

// FindDetails loads one bicycle with its joined names.
func (r *Repository) FindDetails(ctx context.Context, id uint) (*bicycleRow, error) {
	return repo.ScanOne[bicycleRow](r.joined(ctx).Where("bicycles.id = ?", id))
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Bicycle, error) {
	var bike models.Bicycle
	if err := r.DB(ctx).First(&bike, id).Error; err != nil {
		return nil, err
	}
	return &bike, nil
}

func (r *Repository) Create(ctx context.Context, bike *models.Bicycle) error {
	return r.DB(ctx).Create(bike).Error
}

// Update writes the given columns and reports how many rows changed.
func (r *Repository) Update(ctx context.Context, id uint, fields map[string]any) (int64, error) {
	res := r.DB(ctx).Model(&models.Bicycle{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB(ctx).Delete(&models.Bicycle{}, id)
	return res.RowsAffected, res.Error
}

// TransitionStatus flips the status only when it currently equals from. Zero
// affected rows means another writer got there first.
func (r *Repository) TransitionStatus(ctx context.Context, id uint, from, to enums.BicycleStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Bicycle{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// SetStatus overwrites the status unconditionally.
func (r *Repository) SetStatus(ctx context.Context, id uint, to enums.BicycleStatus) error {
	return r.DB(ctx).Model(&models.Bicycle{}).Where("id = ?", id).Update("status", to).Error
}

// CountRentals counts rentals of the bicycle, only active ones when activeOnly is set.
func (r *Repository) CountRentals(ctx context.Context, id uint, activeOnly bool) (int64, error) {
	q := r.DB(ctx).Model(&models.Rental{}).Where("bicycle_id = ?", id)
	if activeOnly {
		q = q.Where("status = ?", enums.RentalStatusActive)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// CountPurchases counts purchases that point at the bicycle.
func (r *Repository) CountPurchases(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Purchase{}).Where("bicycle_id = ?", id).Count(&count).Error
	return count, err
}
