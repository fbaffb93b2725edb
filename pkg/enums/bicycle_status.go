package enums

import "fmt"

// BicycleStatus tracks whether a bicycle can be rented.
type BicycleStatus string

const (
	BicycleStatusAvailable   BicycleStatus = "available"
	BicycleStatusRented      BicycleStatus = "rented"
	BicycleStatusMaintenance BicycleStatus = "maintenance"
)

var validBicycleStatuses = []BicycleStatus{
	BicycleStatusAvailable,
	BicycleStatusRented,
	BicycleStatusMaintenance,
}

// String implements fmt.Stringer.
func (b BicycleStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BicycleStatus.
func (b BicycleStatus) IsValid() bool {
	for _, candidate := range validBicycleStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsManuallySettable reports whether staff may set this status directly.
// rented is only ever entered through the rental flow.
func (b BicycleStatus) IsManuallySettable() bool {
	return b == BicycleStatusAvailable || b == BicycleStatusMaintenance
}

// ParseBicycleStatus converts raw input into a BicycleStatus.
func ParseBicycleStatus(value string) (BicycleStatus, error) {
	for _, candidate := range validBicycleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bicycle status %q", value)
}
