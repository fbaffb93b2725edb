package enums

import (
	"fmt"
	"strings"
	"time"
)

// PricingUnit is the billing granularity of a bicycle's price.
type PricingUnit string

const (
	PricingUnitDay  PricingUnit = "day"
	PricingUnitHour PricingUnit = "hour"
)

var validPricingUnits = []PricingUnit{
	PricingUnitDay,
	PricingUnitHour,
}

// String implements fmt.Stringer.
func (p PricingUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingUnit.
func (p PricingUnit) IsValid() bool {
	for _, candidate := range validPricingUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// Duration returns the length of one billable unit.
func (p PricingUnit) Duration() time.Duration {
	if p == PricingUnitHour {
		return time.Hour
	}
	return 24 * time.Hour
}

// ParsePricingUnit converts raw input into a PricingUnit.
func ParsePricingUnit(value string) (PricingUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPricingUnits {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing unit %q", value)
}
