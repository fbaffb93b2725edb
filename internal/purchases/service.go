package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service records procurement: each purchase brings a new bicycle into inventory.
type Service interface {
	List(ctx context.Context, a actor.Actor, page int) (pagination.Page[PurchaseDTO], error)
	Create(ctx context.Context, a actor.Actor, req PurchaseRequest) (*PurchaseDTO, error)
}

type ServiceParams struct {
	DB                 *db.Client
	PageSize           int
	DefaultPricingUnit enums.PricingUnit
	PlaceholderImage   string
	Now                func() time.Time
}

type service struct {
	db          *db.Client
	pageSize    int
	defaultUnit enums.PricingUnit
	placeholder string
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	unit := params.DefaultPricingUnit
	if unit == "" {
		unit = enums.PricingUnitDay
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:          params.DB,
		pageSize:    params.PageSize,
		defaultUnit: unit,
		placeholder: strings.TrimSpace(params.PlaceholderImage),
		now:         now,
	}, nil
}

func authorize(a actor.Actor) error {
	if !a.Is(enums.RoleAdmin, enums.RolePurchasingManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions to manage purchases")
	}
	return nil
}

func (s *service) List(ctx context.Context, a actor.Actor, page int) (pagination.Page[PurchaseDTO], error) {
	if err := authorize(a); err != nil {
		return pagination.Page[PurchaseDTO]{}, err
	}
	params := pagination.Params{Page: page, Limit: s.pageSize}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, params)
	if err != nil {
		return pagination.Page[PurchaseDTO]{}, db.MapError(err, "purchase", "list purchases")
	}
	items := make([]PurchaseDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, fromRow(r))
	}
	return pagination.NewPage(items, params, total), nil
}

// Create inserts the bicycle and then the purchase that references it in one
// transaction.
func (s *service) Create(ctx context.Context, a actor.Actor, req PurchaseRequest) (*PurchaseDTO, error) {
	if err := authorize(a); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bicycle name is required")
	}
	price, err := bicycles.ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	cost, err := parseCost(req.Cost)
	if err != nil {
		return nil, err
	}
	unit := s.defaultUnit
	if raw := strings.TrimSpace(req.PricingUnit); raw != "" {
		if unit, err = enums.ParsePricingUnit(raw); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing unit must be day or hour")
		}
	}
	if req.BranchID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch is required")
	}
	if req.SupplierID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier is required")
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	purchaseDate, err := s.parseDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	var created *PurchaseDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		branchID, supplierID := req.BranchID, req.SupplierID
		if err := bicycles.CheckReferences(ctx, tx, &branchID, req.CategoryID, &supplierID); err != nil {
			return err
		}

		bike := &models.Bicycle{
			Name:        name,
			Description: optional(req.Description),
			Price:       price,
			PricingUnit: unit,
			CategoryID:  nonZero(req.CategoryID),
			BranchID:    branchID,
			SupplierID:  &supplierID,
			ImageURL:    s.imageOrPlaceholder(req.ImageURL),
			Status:      enums.BicycleStatusAvailable,
		}
		if err := bicycles.NewRepository(tx).Create(ctx, bike); err != nil {
			return db.MapError(err, "bicycle", "create bicycle")
		}

		purchase := &models.Purchase{
			SupplierID:   supplierID,
			BranchID:     branchID,
			BicycleID:    &bike.ID,
			Quantity:     quantity,
			Cost:         cost,
			PurchaseDate: purchaseDate,
			Status:       enums.PurchaseStatusCompleted,
		}
		r := NewRepository(tx)
		if err := r.Create(ctx, purchase); err != nil {
			return db.MapError(err, "purchase", "create purchase")
		}
		row, err := r.FindDetails(ctx, purchase.ID)
		if err != nil {
			return db.MapError(err, "purchase", "reload purchase")
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

func (s *service) parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "purchase date must be YYYY-MM-DD")
	}
	return d, nil
}

func (s *service) imageOrPlaceholder(raw string) *string {
	if img := optional(raw); img != nil {
		return img
	}
	if s.placeholder == "" {
		return nil
	}
	v := s.placeholder
	return &v
}

func parseCost(raw string) (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cost must be a number")
	}
	if !cost.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cost must be greater than zero")
	}
	return cost.Round(2), nil
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
