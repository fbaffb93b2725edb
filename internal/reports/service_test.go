package reports

import (
	"context"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/dbtest"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryScopesByRole(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	ctx := context.Background()

	cbd := dbtest.SeedBranch(t, conn, "CBD")
	karen := dbtest.SeedBranch(t, conn, "Karen")
	supplier := dbtest.SeedSupplier(t, conn, "Raleigh")
	alice := dbtest.SeedUser(t, conn, "alice", enums.RoleCustomer, &cbd.ID)
	carol := dbtest.SeedUser(t, conn, "carol", enums.RoleCustomer, &karen.ID)
	mgr := dbtest.SeedUser(t, conn, "mgr", enums.RoleBranchManager, &cbd.ID)
	dbtest.SeedUser(t, conn, "root", enums.RoleAdmin, nil)

	b1 := dbtest.SeedBicycle(t, conn, "Trek", cbd.ID, "500")
	b2 := dbtest.SeedBicycle(t, conn, "Giant", cbd.ID, "300")
	b3 := dbtest.SeedBicycle(t, conn, "Cannondale", karen.ID, "400")
	require.NoError(t, conn.Model(&b2).Update("status", enums.BicycleStatusMaintenance).Error)

	dbtest.SeedActiveRental(t, conn, alice.ID, b1, time.Now())
	dbtest.SeedActiveRental(t, conn, carol.ID, b3, time.Now())

	returned := time.Now().UTC()
	require.NoError(t, conn.Create(&models.Rental{
		UserID: alice.ID, BicycleID: b2.ID, StartBranchID: cbd.ID,
		StartDate: returned.Add(-72 * time.Hour), EndDate: returned.Add(-24 * time.Hour), ReturnDate: &returned,
		TotalCost: decimal.NewFromInt(900), PricingUnit: enums.PricingUnitDay, Status: enums.RentalStatusCompleted,
	}).Error)

	for _, p := range []models.Purchase{
		{SupplierID: supplier.ID, BranchID: cbd.ID, Quantity: 1, Cost: decimal.NewFromInt(30000), PurchaseDate: returned, Status: enums.PurchaseStatusCompleted},
		{SupplierID: supplier.ID, BranchID: karen.ID, Quantity: 1, Cost: decimal.NewFromInt(25000), PurchaseDate: returned, Status: enums.PurchaseStatusCompleted},
	} {
		p := p
		require.NoError(t, conn.Create(&p).Error)
	}

	svc, err := NewService(client)
	require.NoError(t, err)

	admin := actor.Actor{UserID: 1, Role: enums.RoleAdmin}
	all, err := svc.Summary(ctx, admin)
	require.NoError(t, err)
	assert.Nil(t, all.BranchID)
	assert.Equal(t, int64(3), all.Rentals.Total)
	assert.Equal(t, int64(2), all.Rentals.Active)
	assert.Equal(t, int64(1), all.Rentals.Completed)
	assert.True(t, all.Rentals.Income.Equal(decimal.NewFromInt(900)), "income %s", all.Rentals.Income)
	assert.True(t, all.Rentals.Outstanding.Equal(decimal.NewFromInt(900)), "outstanding %s", all.Rentals.Outstanding)
	assert.Equal(t, BicycleSummary{Total: 3, Available: 0, Rented: 2, Maintenance: 1}, all.Bicycles)
	assert.Equal(t, int64(2), all.Purchases.Count)
	assert.True(t, all.Purchases.Expenses.Equal(decimal.NewFromInt(55000)))
	require.NotNil(t, all.Users)
	assert.Equal(t, int64(4), all.Users.Total)
	assert.Equal(t, int64(2), all.Users.ByRole[enums.RoleCustomer])

	scoped, err := svc.Summary(ctx, actor.Actor{UserID: mgr.ID, Role: enums.RoleBranchManager, BranchID: &cbd.ID})
	require.NoError(t, err)
	require.NotNil(t, scoped.BranchID)
	assert.Equal(t, cbd.ID, *scoped.BranchID)
	assert.Equal(t, int64(2), scoped.Rentals.Total)
	assert.True(t, scoped.Rentals.Outstanding.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, int64(2), scoped.Bicycles.Total)
	assert.True(t, scoped.Purchases.Expenses.Equal(decimal.NewFromInt(30000)))
	assert.Nil(t, scoped.Users)

	_, err = svc.Summary(ctx, actor.Actor{UserID: alice.ID, Role: enums.RoleCustomer, BranchID: &cbd.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.Summary(ctx, actor.Actor{UserID: 4, Role: enums.RolePurchasingManager})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestSummaryOnEmptyStore(t *testing.T) {
	svc, err := NewService(dbtest.Open(t))
	require.NoError(t, err)

	out, err := svc.Summary(context.Background(), actor.Actor{UserID: 1, Role: enums.RoleAdmin})
	require.NoError(t, err)
	assert.Zero(t, out.Rentals.Total)
	assert.True(t, out.Rentals.Income.IsZero())
	assert.True(t, out.Purchases.Expenses.IsZero())
	assert.Zero(t, out.Users.Total)
}
