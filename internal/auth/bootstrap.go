package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/security"
	"gorm.io/gorm"
)

// BootstrapAdmin creates the first administrator from configuration. It is a
// no-op when a user with the configured email or username already exists; the
// returned flag reports whether a row was inserted.
func BootstrapAdmin(ctx context.Context, client *db.Client, cfg config.BootstrapConfig, passwordCfg config.PasswordConfig) (*users.UserDTO, bool, error) {
	if client == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if !cfg.Enabled() {
		return nil, false, nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	username := strings.TrimSpace(cfg.AdminUsername)
	if len(cfg.AdminPassword) < security.MinPasswordLength {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "bootstrap admin password is too short")
	}

	var (
		result  *users.UserDTO
		created bool
	)
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		existing, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			result = users.FromModel(existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin email")
		}
		taken, err := userRepo.ExistsByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "bootstrap admin username already taken")
		}

		hash, err := security.HashPassword(cfg.AdminPassword, passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Role:         enums.RoleAdmin,
		})
		if err != nil {
			return db.MapError(err, "user", "create admin")
		}
		result = users.FromModel(user)
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}
