package bicycles

import (
	"context"
	"fmt"
	"strings"

	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/internal/suppliers"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/bikebuddy/bikebuddy-backend/pkg/visibility"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ManageService backs the bicycle management page for admins and branch managers.
type ManageService interface {
	List(ctx context.Context, a actor.Actor, page int) (pagination.Page[BicycleDTO], error)
	Create(ctx context.Context, a actor.Actor, req BicycleRequest) (*BicycleDTO, error)
	Update(ctx context.Context, a actor.Actor, id uint, req BicycleRequest) (*BicycleDTO, error)
	Delete(ctx context.Context, a actor.Actor, id uint) error
}

type ManageParams struct {
	DB                 *db.Client
	PageSize           int
	DefaultPricingUnit enums.PricingUnit
}

type manageService struct {
	db          *db.Client
	pageSize    int
	defaultUnit enums.PricingUnit
}

func NewManageService(params ManageParams) (ManageService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	unit := params.DefaultPricingUnit
	if unit == "" {
		unit = enums.PricingUnitDay
	}
	if !unit.IsValid() {
		return nil, fmt.Errorf("invalid default pricing unit %q", unit)
	}
	return &manageService{db: params.DB, pageSize: params.PageSize, defaultUnit: unit}, nil
}

func (s *manageService) List(ctx context.Context, a actor.Actor, page int) (pagination.Page[BicycleDTO], error) {
	scope, err := visibility.ManagedBranchScope(a)
	if err != nil {
		return pagination.Page[BicycleDTO]{}, err
	}
	params := pagination.Params{Page: page, Limit: s.pageSize}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, ListQuery{BranchID: scope}, params)
	if err != nil {
		return pagination.Page[BicycleDTO]{}, db.MapError(err, "bicycle", "list bicycles")
	}
	return pagination.NewPage(fromRows(rows), params, total), nil
}

// Create pins branch managers to their own branch; admins must pick one.
func (s *manageService) Create(ctx context.Context, a actor.Actor, req BicycleRequest) (*BicycleDTO, error) {
	scope, err := visibility.ManagedBranchScope(a)
	if err != nil {
		return nil, err
	}
	name, price, unit, err := s.parseCore(req)
	if err != nil {
		return nil, err
	}
	status := enums.BicycleStatusAvailable
	if strings.TrimSpace(req.Status) != "" {
		if status, err = parseSettableStatus(req.Status); err != nil {
			return nil, err
		}
	}

	var branchID uint
	if scope != nil {
		branchID = *scope
	} else {
		if req.BranchID == nil || *req.BranchID == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch is required")
		}
		branchID = *req.BranchID
	}

	var created *BicycleDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := CheckReferences(ctx, tx, &branchID, req.CategoryID, req.SupplierID); err != nil {
			return err
		}
		bike := &models.Bicycle{
			Name:        name,
			Description: optionalText(req.Description),
			Price:       price,
			PricingUnit: unit,
			BranchID:    branchID,
			CategoryID:  nonZero(req.CategoryID),
			SupplierID:  nonZero(req.SupplierID),
			ImageURL:    optionalText(req.ImageURL),
			Status:      status,
		}
		r := NewRepository(tx)
		if err := r.Create(ctx, bike); err != nil {
			return db.MapError(err, "bicycle", "create bicycle")
		}
		row, err := r.FindDetails(ctx, bike.ID)
		if err != nil {
			return db.MapError(err, "bicycle", "reload bicycle")
		}
		dto := fromRow(*row)
		created = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update never moves a branch manager's bicycle to another branch. Status may
// only be set to available or maintenance, and not while the bicycle is out.
func (s *manageService) Update(ctx context.Context, a actor.Actor, id uint, req BicycleRequest) (*BicycleDTO, error) {
	if _, err := visibility.ManagedBranchScope(a); err != nil {
		return nil, err
	}
	name, price, unit, err := s.parseCore(req)
	if err != nil {
		return nil, err
	}

	var updated *BicycleDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := NewRepository(tx)
		bike, err := r.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, "bicycle", "load bicycle")
		}
		if err := visibility.EnsureBranchWritable(a, bike.BranchID); err != nil {
			return err
		}

		branchID := bike.BranchID
		if a.Role == enums.RoleAdmin && req.BranchID != nil && *req.BranchID != 0 {
			branchID = *req.BranchID
		}
		if err := CheckReferences(ctx, tx, &branchID, req.CategoryID, req.SupplierID); err != nil {
			return err
		}

		fields := map[string]any{
			"name":         name,
			"description":  optionalText(req.Description),
			"price":        price,
			"pricing_unit": unit,
			"branch_id":    branchID,
			"category_id":  nonZero(req.CategoryID),
			"supplier_id":  nonZero(req.SupplierID),
			"image_url":    optionalText(req.ImageURL),
		}

		if raw := strings.TrimSpace(req.Status); raw != "" {
			status, err := parseSettableStatus(raw)
			if err != nil {
				return err
			}
			if status != bike.Status {
				active, err := r.CountRentals(ctx, id, true)
				if err != nil {
					return db.MapError(err, "bicycle", "check active rentals")
				}
				if active > 0 || bike.Status == enums.BicycleStatusRented {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "bicycle is currently rented; return it before changing its status")
				}
				fields["status"] = status
			}
		}

		if _, err := r.Update(ctx, id, fields); err != nil {
			return db.MapError(err, "bicycle", "update bicycle")
		}
		row, err := r.FindDetails(ctx, id)
		if err != nil {
			return db.MapError(err, "bicycle", "reload bicycle")
		}
		dto := fromRow(*row)
		updated = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *manageService) Delete(ctx context.Context, a actor.Actor, id uint) error {
	if _, err := visibility.ManagedBranchScope(a); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := NewRepository(tx)
		bike, err := r.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, "bicycle", "load bicycle")
		}
		if err := visibility.EnsureBranchWritable(a, bike.BranchID); err != nil {
			return err
		}

		active, err := r.CountRentals(ctx, id, true)
		if err != nil {
			return db.MapError(err, "bicycle", "check active rentals")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a bicycle with active rentals")
		}
		history, err := r.CountRentals(ctx, id, false)
		if err != nil {
			return db.MapError(err, "bicycle", "check rental history")
		}
		if history > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a bicycle with rental history")
		}

		if err := tx.WithContext(ctx).
			Model(&models.Purchase{}).
			Where("bicycle_id = ?", id).
			Update("bicycle_id", nil).Error; err != nil {
			return db.MapError(err, "purchase", "detach purchases")
		}
		if _, err := r.Delete(ctx, id); err != nil {
			return db.MapError(err, "bicycle", "delete bicycle")
		}
		return nil
	})
}

func (s *manageService) parseCore(req BicycleRequest) (string, decimal.Decimal, enums.PricingUnit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", decimal.Zero, "", pkgerrors.New(pkgerrors.CodeValidation, "bicycle name is required")
	}
	price, err := ParsePrice(req.Price)
	if err != nil {
		return "", decimal.Zero, "", err
	}
	unit := s.defaultUnit
	if raw := strings.TrimSpace(req.PricingUnit); raw != "" {
		if unit, err = enums.ParsePricingUnit(raw); err != nil {
			return "", decimal.Zero, "", pkgerrors.New(pkgerrors.CodeValidation, "pricing unit must be day or hour")
		}
	}
	return name, price, unit, nil
}

// ParsePrice reads a positive money amount with at most two decimal places.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number")
	}
	if !price.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if !price.Equal(price.Round(2)) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price may have at most two decimal places")
	}
	return price.Round(2), nil
}

func parseSettableStatus(raw string) (enums.BicycleStatus, error) {
	status, err := enums.ParseBicycleStatus(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || !status.IsManuallySettable() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "status must be available or maintenance")
	}
	return status, nil
}

// CheckReferences verifies that the referenced rows exist. SQLite runs without
// foreign keys, so this is the only guard there.
func CheckReferences(ctx context.Context, tx *gorm.DB, branchID, categoryID, supplierID *uint) error {
	if branchID != nil {
		ok, err := branches.NewRepository(tx).Exists(ctx, *branchID)
		if err != nil {
			return db.MapError(err, "branch", "check branch")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "selected branch does not exist")
		}
	}
	if id := nonZero(categoryID); id != nil {
		ok, err := categories.NewRepository(tx).Exists(ctx, *id)
		if err != nil {
			return db.MapError(err, "category", "check category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "selected category does not exist")
		}
	}
	if id := nonZero(supplierID); id != nil {
		ok, err := suppliers.NewRepository(tx).Exists(ctx, *id)
		if err != nil {
			return db.MapError(err, "supplier", "check supplier")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "selected supplier does not exist")
		}
	}
	return nil
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

func optionalText(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
