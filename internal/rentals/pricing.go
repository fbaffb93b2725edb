package rentals

import (
	"strings"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// BillableUnits is the number of pricing units charged for [start, end).
// Partial units round up and at least one unit is always charged.
func BillableUnits(unit enums.PricingUnit, start, end time.Time) int64 {
	size := unit.Duration()
	elapsed := end.Sub(start)
	if elapsed <= 0 || size <= 0 {
		return 1
	}
	units := int64(elapsed / size)
	if elapsed%size != 0 {
		units++
	}
	if units < 1 {
		return 1
	}
	return units
}

// Cost multiplies the unit price by the number of billable units.
func Cost(price decimal.Decimal, units int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(units)).Round(2)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// ParseWhen reads a rental boundary from a form or JSON value. Date-only
// values resolve to midnight UTC and report dateOnly.
func ParseWhen(raw, field string) (t time.Time, dateOnly bool, err error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		return t, true, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), false, nil
		}
	}
	return time.Time{}, false, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a date (YYYY-MM-DD) or date-time")
}
