// Package actor carries the authenticated identity of a request into the services.
package actor

import (
	"context"
	"slices"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
)

// Actor is who is performing an operation. It is built from the session token
// once per request and passed explicitly into every service call.
type Actor struct {
	UserID   uint
	Username string
	Role     enums.Role
	BranchID *uint
}

type ctxKey struct{}

// Guest is the actor for unauthenticated requests.
func Guest() Actor {
	return Actor{Role: enums.RoleGuest}
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0 && a.Role.IsValid()
}

// Is reports whether the actor holds any of the given roles.
func (a Actor) Is(roles ...enums.Role) bool {
	return slices.Contains(roles, a.Role)
}

// HomeBranch returns the actor's branch, if any.
func (a Actor) HomeBranch() (uint, bool) {
	if a.BranchID == nil || *a.BranchID == 0 {
		return 0, false
	}
	return *a.BranchID, true
}

// LandingPage is where the actor is sent after login or when denied access.
func (a Actor) LandingPage() string {
	return LandingPage(a.Role)
}

func LandingPage(role enums.Role) string {
	switch role {
	case enums.RoleCustomer:
		return "/dashboard"
	case enums.RoleBranchManager:
		return "/manage_rentals"
	case enums.RolePurchasingManager:
		return "/manage_purchases"
	case enums.RoleAdmin:
		return "/report"
	default:
		return "/login"
	}
}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the request actor, or Guest when none was stored.
func FromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Guest()
	}
	if a, ok := ctx.Value(ctxKey{}).(Actor); ok {
		return a
	}
	return Guest()
}
