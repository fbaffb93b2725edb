package users

import (
	"context"
	"fmt"

	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/bikebuddy/bikebuddy-backend/pkg/security"
	"gorm.io/gorm"
)

// Service covers the caller's own account and the admin user management page.
type Service interface {
	Profile(ctx context.Context, a actor.Actor) (*UserDTO, error)
	UpdateProfile(ctx context.Context, a actor.Actor, req UpdateProfileRequest) (*UserDTO, error)
	ChangePassword(ctx context.Context, a actor.Actor, req ChangePasswordRequest) error
	List(ctx context.Context, a actor.Actor, params pagination.Params) (pagination.Page[UserDTO], error)
	UpdateRole(ctx context.Context, a actor.Actor, targetID uint, req UpdateRoleRequest) (*UserDTO, error)
	Delete(ctx context.Context, a actor.Actor, targetID uint) error
}

// SessionRevoker ends every login of a user. Role changes and deletions call
// it so stale access tokens stop carrying the old role.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uint) (int, error)
}

type ServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	Sessions       SessionRevoker
}

type service struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	sessions    SessionRevoker
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &service{db: params.DB, passwordCfg: params.PasswordConfig, sessions: params.Sessions}, nil
}

// revokeSessions runs as the last step of a transaction so a Redis failure
// rolls the change back.
func (s *service) revokeSessions(ctx context.Context, userID uint) error {
	if s.sessions == nil {
		return nil
	}
	if _, err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke user sessions")
	}
	return nil
}

func requireAuthenticated(a actor.Actor) error {
	if !a.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "please log in")
	}
	return nil
}

func requireAdmin(a actor.Actor) error {
	if a.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can manage users")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, a actor.Actor) (*UserDTO, error) {
	if err := requireAuthenticated(a); err != nil {
		return nil, err
	}
	user, err := NewRepository(s.db.DB()).FindByID(ctx, a.UserID)
	if err != nil {
		return nil, db.MapError(err, "user", "load profile")
	}
	dto := FromModel(user)
	if user.BranchID != nil {
		if b, err := branches.NewRepository(s.db.DB()).FindByID(ctx, *user.BranchID); err == nil {
			dto.BranchName = &b.Name
		}
	}
	return dto, nil
}

func (s *service) UpdateProfile(ctx context.Context, a actor.Actor, req UpdateProfileRequest) (*UserDTO, error) {
	if err := requireAuthenticated(a); err != nil {
		return nil, err
	}
	if err := NewRepository(s.db.DB()).UpdateContact(ctx, a.UserID, emptyToNil(req.Phone), emptyToNil(req.Address)); err != nil {
		return nil, db.MapError(err, "user", "update profile")
	}
	return s.Profile(ctx, a)
}

func (s *service) ChangePassword(ctx context.Context, a actor.Actor, req ChangePasswordRequest) error {
	if err := requireAuthenticated(a); err != nil {
		return err
	}
	if err := security.CheckNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	repo := NewRepository(s.db.DB())
	user, err := repo.FindByID(ctx, a.UserID)
	if err != nil {
		return db.MapError(err, "user", "load user")
	}
	ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}
	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := repo.UpdatePasswordHash(ctx, a.UserID, hash); err != nil {
		return db.MapError(err, "user", "update password")
	}
	return nil
}

func (s *service) List(ctx context.Context, a actor.Actor, params pagination.Params) (pagination.Page[UserDTO], error) {
	if err := requireAdmin(a); err != nil {
		return pagination.Page[UserDTO]{}, err
	}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, db.MapError(err, "user", "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, fromRow(r))
	}
	return pagination.NewPage(items, params, total), nil
}

// UpdateRole assigns a role and home branch. Customers and branch managers
// need a branch; administrators and purchasing managers never carry one.
func (s *service) UpdateRole(ctx context.Context, a actor.Actor, targetID uint, req UpdateRoleRequest) (*UserDTO, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	role, err := enums.ParseRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if targetID == a.UserID && role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you cannot remove your own admin role")
	}

	branchID := req.BranchID
	if !role.RequiresBranch() {
		branchID = nil
	}

	var updated *UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindByID(ctx, targetID); err != nil {
			return db.MapError(err, "user", "load user")
		}
		if role.RequiresBranch() {
			if branchID == nil || *branchID == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a branch is required for %s accounts", role))
			}
			exists, err := branches.NewRepository(tx).Exists(ctx, *branchID)
			if err != nil {
				return db.MapError(err, "branch", "check branch")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeValidation, "selected branch does not exist")
			}
		}
		if err := repo.UpdateRole(ctx, targetID, role, branchID); err != nil {
			return db.MapError(err, "user", "update role")
		}
		user, err := repo.FindByID(ctx, targetID)
		if err != nil {
			return db.MapError(err, "user", "reload user")
		}
		updated = FromModel(user)
		return s.revokeSessions(ctx, targetID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, a actor.Actor, targetID uint) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	if targetID == a.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you cannot delete your own account")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindByID(ctx, targetID); err != nil {
			return db.MapError(err, "user", "load user")
		}
		active, err := repo.CountActiveRentals(ctx, targetID)
		if err != nil {
			return db.MapError(err, "user", "count active rentals")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user has active rentals")
		}
		history, err := repo.CountRentals(ctx, targetID)
		if err != nil {
			return db.MapError(err, "user", "count rentals")
		}
		if history > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user has rental history and cannot be deleted")
		}
		if _, err := repo.Delete(ctx, targetID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user has rental history and cannot be deleted")
			}
			return db.MapError(err, "user", "delete user")
		}
		return s.revokeSessions(ctx, targetID)
	})
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
