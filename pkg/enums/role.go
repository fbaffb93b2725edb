package enums

import (
	"fmt"
	"strings"
)

// Role is the single account role a BikeBuddy user holds.
type Role string

const (
	RoleGuest             Role = "guest"
	RoleCustomer          Role = "customer"
	RoleBranchManager     Role = "branch_manager"
	RolePurchasingManager Role = "purchasing_manager"
	RoleAdmin             Role = "admin"
)

// guest is never persisted, so it is not part of the assignable set.
var validRoles = []Role{
	RoleCustomer,
	RoleBranchManager,
	RolePurchasingManager,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is an assignable Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// RequiresBranch reports whether accounts with this role must belong to a branch.
func (r Role) RequiresBranch() bool {
	return r == RoleCustomer || r == RoleBranchManager
}

// IsStaff reports whether the role manages inventory or rentals.
func (r Role) IsStaff() bool {
	return r == RoleBranchManager || r == RolePurchasingManager || r == RoleAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Roles lists every assignable role.
func Roles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}
