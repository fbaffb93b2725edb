package suppliers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"gorm.io/gorm"
)

type SupplierDTO struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	ContactInfo   string    `json:"contact_info"`
	BicycleCount  int64     `json:"bicycle_count"`
	PurchaseCount int64     `json:"purchase_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SupplierRequest struct {
	Name        string `json:"name" schema:"name" validate:"required,max=120"`
	ContactInfo string `json:"contact_info" schema:"contact_info" sanitize:"text" validate:"max=500"`
}

type supplierRow struct {
	models.Supplier
	BicycleCount  int64 `gorm:"column:bicycle_count"`
	PurchaseCount int64 `gorm:"column:purchase_count"`
}

// Service manages suppliers for administrators and purchasing managers.
type Service interface {
	List(ctx context.Context, a actor.Actor) ([]SupplierDTO, error)
	Options(ctx context.Context, a actor.Actor) ([]Option, error)
	Create(ctx context.Context, a actor.Actor, req SupplierRequest) (*SupplierDTO, error)
	Update(ctx context.Context, a actor.Actor, id uint, req SupplierRequest) error
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

func authorize(a actor.Actor) error {
	if !a.Is(enums.RoleAdmin, enums.RolePurchasingManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions to manage suppliers")
	}
	return nil
}

func (s *service) List(ctx context.Context, a actor.Actor) ([]SupplierDTO, error) {
	if err := authorize(a); err != nil {
		return nil, err
	}
	rows, err := NewRepository(s.db.DB()).ListWithCounts(ctx)
	if err != nil {
		return nil, db.MapError(err, "supplier", "list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, SupplierDTO{
			ID:            r.ID,
			Name:          r.Name,
			ContactInfo:   r.ContactInfo,
			BicycleCount:  r.BicycleCount,
			PurchaseCount: r.PurchaseCount,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// Options feeds supplier dropdowns; bicycle managers need it too.
func (s *service) Options(ctx context.Context, a actor.Actor) ([]Option, error) {
	if !a.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
	}
	opts, err := NewRepository(s.db.DB()).Options(ctx)
	if err != nil {
		return nil, db.MapError(err, "supplier", "list supplier options")
	}
	return opts, nil
}

func (s *service) Create(ctx context.Context, a actor.Actor, req SupplierRequest) (*SupplierDTO, error) {
	if err := authorize(a); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	sup := &models.Supplier{Name: name, ContactInfo: strings.TrimSpace(req.ContactInfo)}
	if err := NewRepository(s.db.DB()).Create(ctx, sup); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a supplier with this name already exists")
		}
		return nil, db.MapError(err, "supplier", "create supplier")
	}
	return &SupplierDTO{ID: sup.ID, Name: sup.Name, ContactInfo: sup.ContactInfo, CreatedAt: sup.CreatedAt}, nil
}

func (s *service) Update(ctx context.Context, a actor.Actor, id uint, req SupplierRequest) error {
	if err := authorize(a); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	affected, err := NewRepository(s.db.DB()).Update(ctx, id, name, strings.TrimSpace(req.ContactInfo))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a supplier with this name already exists")
		}
		return db.MapError(err, "supplier", "update supplier")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, a actor.Actor, id uint) error {
	if err := authorize(a); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := NewRepository(tx)
		found, err := r.FindWithCounts(ctx, id)
		if err != nil {
			return db.MapError(err, "supplier", "load supplier")
		}
		if found.BicycleCount > 0 || found.PurchaseCount > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "supplier is referenced by bicycles or purchases")
		}
		if _, err := r.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "supplier is referenced by bicycles or purchases")
			}
			return db.MapError(err, "supplier", "delete supplier")
		}
		return nil
	})
}
