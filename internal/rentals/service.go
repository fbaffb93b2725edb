package rentals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/payments"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/metrics"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/bikebuddy/bikebuddy-backend/pkg/visibility"
	"gorm.io/gorm"
)

const (
	activeRentalIndex  = "idx_rentals_one_active_per_bicycle"
	activeRentalColumn = "rentals.bicycle_id"
	nothingToReturnMsg = "nothing to return"
	defaultRecentLimit = 5
)

// Service runs the rental lifecycle: renting a bicycle, returning it, and the
// role-scoped rental listings.
type Service interface {
	Rent(ctx context.Context, a actor.Actor, req RentRequest) (*RentResult, error)
	Return(ctx context.Context, a actor.Actor, rentalID uint) (*ReturnResult, error)
	ListMine(ctx context.Context, a actor.Actor, page int) (pagination.Page[RentalDTO], error)
	ListManaged(ctx context.Context, a actor.Actor, page int) (pagination.Page[RentalDTO], error)
	Details(ctx context.Context, a actor.Actor, rentalID uint) (*RentalDetailsDTO, error)
	Recent(ctx context.Context, a actor.Actor, limit int) ([]RentalDTO, error)
}

type ServiceParams struct {
	DB         *db.Client
	Logger     *logger.Logger
	Metrics    *metrics.RentalMetrics
	StartGrace time.Duration
	PageSize   int
	Now        func() time.Time
}

type service struct {
	db       *db.Client
	logg     *logger.Logger
	metrics  *metrics.RentalMetrics
	grace    time.Duration
	pageSize int
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.StartGrace < 0 {
		return nil, fmt.Errorf("start grace must not be negative")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:       params.DB,
		logg:     logg,
		metrics:  params.Metrics,
		grace:    params.StartGrace,
		pageSize: params.PageSize,
		now:      now,
	}, nil
}

// Rent opens a rental at the actor's home branch. The availability check is
// repeated as a conditional write inside the transaction, so of two racing
// requests for one bicycle exactly one commits.
func (s *service) Rent(ctx context.Context, a actor.Actor, req RentRequest) (*RentResult, error) {
	if !a.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	home, ok := a.HomeBranch()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "your account is not assigned to a branch")
	}
	if req.BicycleID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bicycle_id is required")
	}
	start, end, err := s.validateWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var result *RentResult
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		bikes := bicycles.NewRepository(tx)
		bike, err := bikes.FindByID(ctx, req.BicycleID)
		if err != nil {
			return db.MapError(err, "bicycle", "load bicycle")
		}
		if bike.BranchID != home {
			return pkgerrors.New(pkgerrors.CodeForbidden, "you can only rent bicycles from your home branch")
		}
		if bike.Status != enums.BicycleStatusAvailable {
			s.metrics.IncConflict("unavailable")
			return pkgerrors.New(pkgerrors.CodeConflict, "bicycle is not available for rent")
		}

		flipped, err := bikes.TransitionStatus(ctx, bike.ID, enums.BicycleStatusAvailable, enums.BicycleStatusRented)
		if err != nil {
			return db.MapError(err, "bicycle", "reserve bicycle")
		}
		if flipped == 0 {
			s.metrics.IncConflict("lost_race")
			return pkgerrors.New(pkgerrors.CodeConflict, "bicycle no longer available")
		}

		units := BillableUnits(bike.PricingUnit, start, end)
		rental := &models.Rental{
			UserID:        a.UserID,
			BicycleID:     bike.ID,
			StartBranchID: home,
			StartDate:     start,
			EndDate:       end,
			TotalCost:     Cost(bike.Price, units),
			PricingUnit:   bike.PricingUnit,
			Status:        enums.RentalStatusActive,
		}
		if err := NewRepository(tx).Create(ctx, rental); err != nil {
			if isActiveRentalConflict(err) {
				s.metrics.IncConflict("lost_race")
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "bicycle no longer available")
			}
			return db.MapError(err, "rental", "create rental")
		}

		result = &RentResult{
			RentalID:    rental.ID,
			BicycleID:   bike.ID,
			TotalCost:   rental.TotalCost,
			Units:       units,
			PricingUnit: rental.PricingUnit,
			StartDate:   start,
			EndDate:     end,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated(string(result.PricingUnit))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"rental_id":  result.RentalID,
		"bicycle_id": result.BicycleID,
		"units":      result.Units,
		"total_cost": result.TotalCost.String(),
	})
	s.logg.Info(logCtx, "rental.created")
	return result, nil
}

// validateWindow parses the rental window. A date-only start may be any time
// today; a timestamped start may lag now by the grace window.
func (s *service) validateWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, startDateOnly, err := ParseWhen(rawStart, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, _, err := ParseWhen(rawEnd, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	now := s.now().UTC()
	earliest := now.Add(-s.grace)
	if startDateOnly {
		earliest = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if start.Before(earliest) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start date cannot be in the past")
	}
	return start, end, nil
}

// Return closes an open rental, bills the elapsed units at the bicycle's
// current price and records a cash payment. Returning a rental that is
// already closed, or not visible to the actor, is a no-op.
func (s *service) Return(ctx context.Context, a actor.Actor, rentalID uint) (*ReturnResult, error) {
	scope, err := ownershipScope(a)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	result := &ReturnResult{Returned: false, Message: nothingToReturnMsg}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rentals := NewRepository(tx)
		rental, err := rentals.FindOpenForUpdate(ctx, rentalID, scope)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return db.MapError(err, "rental", "lock rental")
		}

		bikes := bicycles.NewRepository(tx)
		bike, err := bikes.FindByID(ctx, rental.BicycleID)
		if err != nil {
			return db.MapError(err, "bicycle", "load bicycle")
		}

		units := BillableUnits(rental.PricingUnit, rental.StartDate, now)
		total := Cost(bike.Price, units)

		closed, err := rentals.Complete(ctx, rental.ID, now, total)
		if err != nil {
			return db.MapError(err, "rental", "complete rental")
		}
		if closed == 0 {
			return nil
		}
		if err := bikes.SetStatus(ctx, bike.ID, enums.BicycleStatusAvailable); err != nil {
			return db.MapError(err, "bicycle", "release bicycle")
		}

		payment := &models.Payment{
			RentalID:    rental.ID,
			Amount:      total,
			PaymentDate: now,
			Method:      enums.PaymentMethodCash,
			Status:      enums.PaymentStatusCompleted,
		}
		if err := payments.NewRepository(tx).Create(ctx, payment); err != nil {
			return db.MapError(err, "payment", "record payment")
		}

		result = &ReturnResult{
			Returned:  true,
			Message:   "bicycle returned",
			RentalID:  rental.ID,
			TotalCost: &total,
			Units:     units,
			PaymentID: payment.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Returned {
		s.metrics.IncReturned(string(a.Role))
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"rental_id":  result.RentalID,
			"units":      result.Units,
			"total_cost": result.TotalCost.String(),
		})
		s.logg.Info(logCtx, "rental.returned")
	}
	return result, nil
}

func (s *service) ListMine(ctx context.Context, a actor.Actor, page int) (pagination.Page[RentalDTO], error) {
	if !a.IsAuthenticated() {
		return pagination.Page[RentalDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	params := pagination.Params{Page: page, Limit: s.pageSize}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, Scope{UserID: &a.UserID}, params)
	if err != nil {
		return pagination.Page[RentalDTO]{}, db.MapError(err, "rental", "list rentals")
	}
	return pagination.NewPage(fromRows(rows, false), params, total), nil
}

// ListManaged is the staff listing: every rental for admins, rentals started
// at their branch for branch managers. Customer contact details are included.
func (s *service) ListManaged(ctx context.Context, a actor.Actor, page int) (pagination.Page[RentalDTO], error) {
	branch, err := visibility.ManagedBranchScope(a)
	if err != nil {
		return pagination.Page[RentalDTO]{}, err
	}
	params := pagination.Params{Page: page, Limit: s.pageSize}
	rows, total, err := NewRepository(s.db.DB()).List(ctx, Scope{BranchID: branch}, params)
	if err != nil {
		return pagination.Page[RentalDTO]{}, db.MapError(err, "rental", "list rentals")
	}
	return pagination.NewPage(fromRows(rows, true), params, total), nil
}

func (s *service) Details(ctx context.Context, a actor.Actor, rentalID uint) (*RentalDetailsDTO, error) {
	scope, err := ownershipScope(a)
	if err != nil {
		return nil, err
	}
	conn := s.db.DB()
	row, err := NewRepository(conn).FindDetails(ctx, rentalID, scope)
	if err != nil {
		return nil, db.MapError(err, "rental", "load rental")
	}

	details := &RentalDetailsDTO{
		RentalDTO:    fromRow(*row, a.Is(enums.RoleAdmin, enums.RoleBranchManager)),
		BicyclePrice: row.BicyclePrice,
	}
	payment, err := payments.NewRepository(conn).FindByRentalID(ctx, rentalID)
	switch {
	case err == nil:
		details.Payment = payments.FromModel(payment)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, db.MapError(err, "payment", "load payment")
	}
	return details, nil
}

// Recent feeds the dashboard with the actor's latest rentals.
func (s *service) Recent(ctx context.Context, a actor.Actor, limit int) ([]RentalDTO, error) {
	if !a.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, _, err := NewRepository(s.db.DB()).List(ctx, Scope{UserID: &a.UserID}, pagination.Params{Page: 1, Limit: limit})
	if err != nil {
		return nil, db.MapError(err, "rental", "list recent rentals")
	}
	return fromRows(rows, false), nil
}

// ownershipScope limits customers to their own rentals and branch managers to
// rentals started at their branch. Admins are unrestricted.
func ownershipScope(a actor.Actor) (Scope, error) {
	if !a.IsAuthenticated() {
		return Scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	switch a.Role {
	case enums.RoleAdmin:
		return Scope{}, nil
	case enums.RoleBranchManager:
		home, ok := a.HomeBranch()
		if !ok {
			return Scope{}, pkgerrors.New(pkgerrors.CodeForbidden, "branch manager has no branch")
		}
		return Scope{BranchID: &home}, nil
	default:
		id := a.UserID
		return Scope{UserID: &id}, nil
	}
}

// isActiveRentalConflict reports whether err came from the one-active-rental
// index. Postgres names the index; SQLite only names the column.
func isActiveRentalConflict(err error) bool {
	return db.IsUniqueViolation(err, activeRentalIndex) || db.IsUniqueViolation(err, activeRentalColumn)
}
