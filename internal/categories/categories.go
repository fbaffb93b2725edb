// Package categories manages the bicycle category list.
package categories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/repo"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"gorm.io/gorm"
)

type CategoryDTO struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	BicycleCount int64     `json:"bicycle_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CategoryRequest struct {
	Name        string  `json:"name" schema:"name" validate:"required,max=120"`
	Description *string `json:"description" schema:"description" sanitize:"text" validate:"omitempty,max=1000"`
}

type categoryRow struct {
	models.Category
	BicycleCount int64 `gorm:"column:bicycle_count"`
}

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, c *models.Category) error {
	return r.DB(ctx).Create(c).Error
}

func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListWithCounts(ctx context.Context) ([]categoryRow, error) {
	var rows []categoryRow
	err := r.DB(ctx).
		Table("categories").
		Select("categories.*, (SELECT COUNT(*) FROM bicycles WHERE bicycles.category_id = categories.id) AS bicycle_count").
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) Options(ctx context.Context) ([]Option, error) {
	var out []Option
	err := r.DB(ctx).Model(&models.Category{}).Select("id, name").Order("name ASC").Scan(&out).Error
	return out, err
}

// Delete removes the category and detaches its bicycles.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	if err := r.DB(ctx).
		Model(&models.Bicycle{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error; err != nil {
		return 0, err
	}
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

// Service manages categories. Mutations and the management list are admin-only.
type Service interface {
	List(ctx context.Context, a actor.Actor) ([]CategoryDTO, error)
	Options(ctx context.Context) ([]Option, error)
	Create(ctx context.Context, a actor.Actor, req CategoryRequest) (*CategoryDTO, error)
	Delete(ctx context.Context, a actor.Actor, id uint) error
}

type service struct {
	db *db.Client
}

func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &service{db: client}, nil
}

func requireAdmin(a actor.Actor) error {
	if a.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can manage categories")
	}
	return nil
}

func (s *service) List(ctx context.Context, a actor.Actor) ([]CategoryDTO, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	rows, err := NewRepository(s.db.DB()).ListWithCounts(ctx)
	if err != nil {
		return nil, db.MapError(err, "category", "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryDTO{
			ID:           r.ID,
			Name:         r.Name,
			Description:  r.Description,
			BicycleCount: r.BicycleCount,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) Options(ctx context.Context) ([]Option, error) {
	opts, err := NewRepository(s.db.DB()).Options(ctx)
	if err != nil {
		return nil, db.MapError(err, "category", "list category options")
	}
	return opts, nil
}

func (s *service) Create(ctx context.Context, a actor.Actor, req CategoryRequest) (*CategoryDTO, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	c := &models.Category{Name: name, Description: req.Description}
	if err := NewRepository(s.db.DB()).Create(ctx, c); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a category with this name already exists")
		}
		return nil, db.MapError(err, "category", "create category")
	}
	return &CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}, nil
}

func (s *service) Delete(ctx context.Context, a actor.Actor, id uint) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := NewRepository(tx).Delete(ctx, id)
		if err != nil {
			return db.MapError(err, "category", "delete category")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil
	})
}
