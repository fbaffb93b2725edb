package branches

import (
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
)

type BranchDTO struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	BicycleCount int64     `json:"bicycle_count"`
	UserCount    int64     `json:"user_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Option is the id/name pair used by filter and form dropdowns.
type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// BranchRequest creates or renames a branch.
type BranchRequest struct {
	Name     string `json:"name" schema:"name" validate:"required,max=120"`
	Location string `json:"location" schema:"location" sanitize:"text" validate:"max=255"`
}

type branchRow struct {
	models.Branch
	BicycleCount int64 `gorm:"column:bicycle_count"`
	UserCount    int64 `gorm:"column:user_count"`
}

func fromRow(r branchRow) BranchDTO {
	return BranchDTO{
		ID:           r.ID,
		Name:         r.Name,
		Location:     r.Location,
		BicycleCount: r.BicycleCount,
		UserCount:    r.UserCount,
		CreatedAt:    r.CreatedAt,
	}
}

func FromModel(b *models.Branch) BranchDTO {
	return BranchDTO{ID: b.ID, Name: b.Name, Location: b.Location, CreatedAt: b.CreatedAt}
}
