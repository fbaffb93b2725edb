package reports

import (
	"context"
	"fmt"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/visibility"
	"github.com/shopspring/decimal"
)

type RentalSummary struct {
	Total       int64           `json:"total"`
	Active      int64           `json:"active"`
	Completed   int64           `json:"completed"`
	Income      decimal.Decimal `json:"income"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type BicycleSummary struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Rented      int64 `json:"rented"`
	Maintenance int64 `json:"maintenance"`
}

type PurchaseSummary struct {
	Count    int64           `json:"count"`
	Expenses decimal.Decimal `json:"expenses"`
}

type UserSummary struct {
	Total  int64                `json:"total"`
	ByRole map[enums.Role]int64 `json:"by_role"`
}

// Summary is the report page. Users is only filled in for admins; BranchID is
// nil when the figures cover every branch.
type Summary struct {
	BranchID  *uint           `json:"branch_id"`
	Rentals   RentalSummary   `json:"rentals"`
	Bicycles  BicycleSummary  `json:"bicycles"`
	Purchases PurchaseSummary `json:"purchases"`
	Users     *UserSummary    `json:"users,omitempty"`
}

type Service interface {
	Summary(ctx context.Context, a actor.Actor) (*Summary, error)
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

func (s *service) Summary(ctx context.Context, a actor.Actor) (*Summary, error) {
	branch, err := visibility.ManagedBranchScope(a)
	if err != nil {
		return nil, err
	}
	r := NewRepository(s.db.DB())
	out := &Summary{BranchID: branch}

	rentals, err := r.RentalTotals(ctx, branch)
	if err != nil {
		return nil, db.MapError(err, "report", "aggregate rentals")
	}
	out.Rentals = RentalSummary(rentals)

	statuses, err := r.BicyclesByStatus(ctx, branch)
	if err != nil {
		return nil, db.MapError(err, "report", "aggregate bicycles")
	}
	for _, g := range statuses {
		out.Bicycles.Total += g.Count
		switch enums.BicycleStatus(g.Key) {
		case enums.BicycleStatusAvailable:
			out.Bicycles.Available = g.Count
		case enums.BicycleStatusRented:
			out.Bicycles.Rented = g.Count
		case enums.BicycleStatusMaintenance:
			out.Bicycles.Maintenance = g.Count
		}
	}

	purchases, err := r.PurchaseTotals(ctx, branch)
	if err != nil {
		return nil, db.MapError(err, "report", "aggregate purchases")
	}
	out.Purchases = PurchaseSummary(purchases)

	if a.Role == enums.RoleAdmin {
		roles, err := r.UsersByRole(ctx)
		if err != nil {
			return nil, db.MapError(err, "report", "aggregate users")
		}
		users := &UserSummary{ByRole: make(map[enums.Role]int64, len(roles))}
		for _, g := range roles {
			users.ByRole[enums.Role(g.Key)] = g.Count
			users.Total += g.Count
		}
		out.Users = users
	}
	return out, nil
}
