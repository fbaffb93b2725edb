package purchases

import (
	"context"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, p *models.Purchase) error {
	return r.DB(ctx).Create(p).Error
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("purchases").
		Select("purchases.*, suppliers.name AS supplier_name, branches.name AS branch_name, bicycles.name AS bicycle_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
		Joins("LEFT JOIN branches ON branches.id = purchases.branch_id").
		Joins("LEFT JOIN bicycles ON bicycles.id = purchases.bicycle_id")
}

// List returns one page of purchases, most recent purchase date first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]purchaseRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Purchase{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []purchaseRow
	err := r.joined(ctx).
		Scopes(repo.Paginate(params)).
		Order("purchases.purchase_date DESC, purchases.id DESC").
		Scan(&rows).Error
	return rows, total, err
}

func (r *Repository) FindDetails(ctx context.Context, id uint) (*purchaseRow, error) {
	return repo.ScanOne[purchaseRow](r.joined(ctx).Where("purchases.id = ?", id))
}
