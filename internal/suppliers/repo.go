package suppliers

import (
	"context"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, s *models.Supplier) error {
	return r.DB(ctx).Create(s).Error
}

func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Supplier{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) withCounts(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("suppliers").
		Select(`suppliers.*,
			(SELECT COUNT(*) FROM bicycles WHERE bicycles.supplier_id = suppliers.id) AS bicycle_count,
			(SELECT COUNT(*) FROM purchases WHERE purchases.supplier_id = suppliers.id) AS purchase_count`)
}

func (r *Repository) ListWithCounts(ctx context.Context) ([]supplierRow, error) {
	var rows []supplierRow
	err := r.withCounts(ctx).Order("suppliers.name ASC").Scan(&rows).Error
	return rows, err
}

// FindWithCounts returns gorm.ErrRecordNotFound when the supplier does not exist.
func (r *Repository) FindWithCounts(ctx context.Context, id uint) (*supplierRow, error) {
	return repo.ScanOne[supplierRow](r.withCounts(ctx).Where("suppliers.id = ?", id))
}

func (r *Repository) Options(ctx context.Context) ([]Option, error) {
	var out []Option
	err := r.DB(ctx).Model(&models.Supplier{}).Select("id, name").Order("name ASC").Scan(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id uint, name, contact string) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "contact_info": contact})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Supplier{})
	return res.RowsAffected, res.Error
}
