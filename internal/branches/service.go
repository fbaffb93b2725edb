package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service manages branches. Everything except Options is admin-only.
type Service interface {
	List(ctx context.Context, a actor.Actor) ([]BranchDTO, error)
	Options(ctx context.Context) ([]Option, error)
	Create(ctx context.Context, a actor.Actor, req BranchRequest) (*BranchDTO, error)
	Update(ctx context.Context, a actor.Actor, id uint, req BranchRequest) error
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
		return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can manage branches")
	}
	return nil
}

func (s *service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func (s *service) List(ctx context.Context, a actor.Actor) ([]BranchDTO, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	rows, err := s.repo().ListWithCounts(ctx)
	if err != nil {
		return nil, db.MapError(err, "branch", "list branches")
	}
	out := make([]BranchDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func (s *service) Options(ctx context.Context) ([]Option, error) {
	opts, err := s.repo().Options(ctx)
	if err != nil {
		return nil, db.MapError(err, "branch", "list branch options")
	}
	return opts, nil
}

func (s *service) Create(ctx context.Context, a actor.Actor, req BranchRequest) (*BranchDTO, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}
	b := &models.Branch{Name: name, Location: strings.TrimSpace(req.Location)}
	if err := s.repo().Create(ctx, b); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a branch with this name already exists")
		}
		return nil, db.MapError(err, "branch", "create branch")
	}
	dto := FromModel(b)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, a actor.Actor, id uint, req BranchRequest) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}
	affected, err := s.repo().Update(ctx, id, name, strings.TrimSpace(req.Location))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a branch with this name already exists")
		}
		return db.MapError(err, "branch", "update branch")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return nil
}

// Delete removes a branch nothing references. Bicycles and users must be moved first.
func (s *service) Delete(ctx context.Context, a actor.Actor, id uint) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := NewRepository(tx)
		if _, err := r.FindByID(ctx, id); err != nil {
			return db.MapError(err, "branch", "load branch")
		}
		refs, err := r.CountReferences(ctx, id)
		if err != nil {
			return db.MapError(err, "branch", "count branch references")
		}
		if refs["bicycles"] > 0 || refs["users"] > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "branch still has bicycles or users assigned").
				WithDetails(refs)
		}
		if refs["rentals"] > 0 || refs["purchases"] > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "branch has rental or purchase history and cannot be deleted")
		}
		if _, err := r.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "branch is still referenced by other records")
			}
			return db.MapError(err, "branch", "delete branch")
		}
		return nil
	})
}
