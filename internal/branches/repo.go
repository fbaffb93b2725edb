package branches

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

func (r *Repository) Create(ctx context.Context, b *models.Branch) error {
	return r.DB(ctx).Create(b).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Branch, error) {
	var b models.Branch
	if err := r.DB(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Branch{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Lowest returns the branch with the smallest id, the default home branch for signups.
func (r *Repository) Lowest(ctx context.Context) (*models.Branch, error) {
	var b models.Branch
	if err := r.DB(ctx).Order("id ASC").First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListWithCounts returns every branch with how many bicycles and users reference it.
func (r *Repository) ListWithCounts(ctx context.Context) ([]branchRow, error) {
	var rows []branchRow
	err := r.DB(ctx).
		Table("branches").
		Select(`branches.*,
			(SELECT COUNT(*) FROM bicycles WHERE bicycles.branch_id = branches.id) AS bicycle_count,
			(SELECT COUNT(*) FROM users WHERE users.branch_id = branches.id) AS user_count`).
		Order("branches.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) Options(ctx context.Context) ([]Option, error) {
	var out []Option
	err := r.DB(ctx).Model(&models.Branch{}).Select("id, name").Order("name ASC").Scan(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id uint, name, location string) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Branch{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "location": location})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Branch{})
	return res.RowsAffected, res.Error
}

// CountReferences counts rows in other tables pointing at the branch.
func (r *Repository) CountReferences(ctx context.Context, id uint) (map[string]int64, error) {
	out := map[string]int64{}
	checks := []struct {
		name   string
		model  any
		column string
	}{
		{"bicycles", &models.Bicycle{}, "branch_id"},
		{"users", &models.User{}, "branch_id"},
		{"rentals", &models.Rental{}, "start_branch_id"},
		{"purchases", &models.Purchase{}, "branch_id"},
	}
	for _, c := range checks {
		var count int64
		if err := r.DB(ctx).Model(c.model).Where(c.column+" = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		out[c.name] = count
	}
	return out, nil
}
