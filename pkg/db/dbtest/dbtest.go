// Package dbtest opens throwaway sqlite databases with the full schema and
// seeds the rows tests commonly need.
package dbtest

import (
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a client over a fresh in-memory sqlite database. The pool is
// limited to one connection, matching how the API runs sqlite.
func Open(t testing.TB) *db.Client {
	t.Helper()
	dsn := "file:bikebuddy_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db.NewFromGorm(conn)
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func SeedBranch(t testing.TB, conn *gorm.DB, name string) models.Branch {
	t.Helper()
	b := models.Branch{Name: name, Location: name + " town"}
	mustCreate(t, conn, &b)
	return b
}

func SeedCategory(t testing.TB, conn *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	mustCreate(t, conn, &c)
	return c
}

func SeedSupplier(t testing.TB, conn *gorm.DB, name string) models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name}
	mustCreate(t, conn, &s)
	return s
}

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(t testing.TB, conn *gorm.DB, username string, role enums.Role, branchID *uint) models.User {
	t.Helper()
	u := models.User{
		Username:     username,
		Email:        username + "@bikebuddy.test",
		PasswordHash: "unused",
		Role:         role,
		BranchID:     branchID,
	}
	mustCreate(t, conn, &u)
	return u
}

// SeedBicycle inserts an available day-priced bicycle.
func SeedBicycle(t testing.TB, conn *gorm.DB, name string, branchID uint, price string) models.Bicycle {
	t.Helper()
	b := models.Bicycle{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		PricingUnit: enums.PricingUnitDay,
		BranchID:    branchID,
		Status:      enums.BicycleStatusAvailable,
	}
	mustCreate(t, conn, &b)
	return b
}

// SeedActiveRental opens a rental and marks the bicycle rented, bypassing the engine.
func SeedActiveRental(t testing.TB, conn *gorm.DB, userID uint, bike models.Bicycle, start time.Time) models.Rental {
	t.Helper()
	r := models.Rental{
		UserID:        userID,
		BicycleID:     bike.ID,
		StartBranchID: bike.BranchID,
		StartDate:     start.UTC(),
		EndDate:       start.UTC().Add(24 * time.Hour),
		TotalCost:     bike.Price,
		PricingUnit:   bike.PricingUnit,
		Status:        enums.RentalStatusActive,
	}
	mustCreate(t, conn, &r)
	if err := conn.Model(&models.Bicycle{}).Where("id = ?", bike.ID).Update("status", enums.BicycleStatusRented).Error; err != nil {
		t.Fatalf("mark bicycle rented: %v", err)
	}
	return r
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
