package bicycles

import (
	"context"
	"fmt"

	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/bikebuddy/bikebuddy-backend/pkg/visibility"
)

// CatalogService answers the public browse and details pages.
type CatalogService interface {
	ListAvailable(ctx context.Context, a actor.Actor, filter CatalogFilter, page int) (pagination.Page[BicycleDTO], error)
	GetDetails(ctx context.Context, a actor.Actor, id uint) (*BicycleDTO, error)
	Filters(ctx context.Context) (*Filters, error)
}

type CatalogParams struct {
	DB       *db.Client
	PageSize int
}

type catalogService struct {
	db       *db.Client
	pageSize int
}

func NewCatalogService(params CatalogParams) (CatalogService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &catalogService{db: params.DB, pageSize: params.PageSize}, nil
}

func (s *catalogService) ListAvailable(ctx context.Context, a actor.Actor, filter CatalogFilter, page int) (pagination.Page[BicycleDTO], error) {
	available := enums.BicycleStatusAvailable
	q := ListQuery{Status: &available}

	switch {
	case filter.BranchID == nil:
		if home, ok := a.HomeBranch(); ok {
			q.BranchID = &home
		}
	case *filter.BranchID != 0:
		q.BranchID = filter.BranchID
	}
	if filter.CategoryID != nil && *filter.CategoryID != 0 {
		q.CategoryID = filter.CategoryID
	}

	params := pagination.Params{Page: page, Limit: s.pageSize}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, q, params)
	if err != nil {
		return pagination.Page[BicycleDTO]{}, db.MapError(err, "bicycle", "list available bicycles")
	}
	return pagination.NewPage(fromRows(rows), params, total), nil
}

// GetDetails hides bicycles of other branches from actors tied to a branch.
func (s *catalogService) GetDetails(ctx context.Context, a actor.Actor, id uint) (*BicycleDTO, error) {
	row, err := NewRepository(s.db.DB()).FindDetails(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "bicycle", "load bicycle")
	}
	if err := visibility.EnsureBranchVisible(a, row.BranchID, "bicycle"); err != nil {
		return nil, err
	}
	dto := fromRow(*row)
	return &dto, nil
}

func (s *catalogService) Filters(ctx context.Context) (*Filters, error) {
	conn := s.db.DB()
	branchOpts, err := branches.NewRepository(conn).Options(ctx)
	if err != nil {
		return nil, db.MapError(err, "branch", "list branches")
	}
	categoryOpts, err := categories.NewRepository(conn).Options(ctx)
	if err != nil {
		return nil, db.MapError(err, "category", "list categories")
	}
	return &Filters{Branches: branchOpts, Categories: categoryOpts}, nil
}
