package actor

import (
	"context"
	"testing"

	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestFromContextDefaultsToGuest(t *testing.T) {
	a := FromContext(context.Background())
	assert.Equal(t, enums.RoleGuest, a.Role)
	assert.False(t, a.IsAuthenticated())
	assert.Equal(t, "/login", a.LandingPage())
}

func TestWithActorRoundTrip(t *testing.T) {
	branch := uint(2)
	in := Actor{UserID: 5, Username: "otieno", Role: enums.RoleBranchManager, BranchID: &branch}
	out := FromContext(WithActor(context.Background(), in))

	assert.Equal(t, in, out)
	assert.True(t, out.IsAuthenticated())
	assert.True(t, out.Is(enums.RoleAdmin, enums.RoleBranchManager))
	assert.False(t, out.Is(enums.RoleAdmin))

	id, ok := out.HomeBranch()
	assert.True(t, ok)
	assert.EqualValues(t, 2, id)
}

func TestLandingPages(t *testing.T) {
	cases := map[enums.Role]string{
		enums.RoleCustomer:          "/dashboard",
		enums.RoleBranchManager:     "/manage_rentals",
		enums.RolePurchasingManager: "/manage_purchases",
		enums.RoleAdmin:             "/report",
		enums.RoleGuest:             "/login",
	}
	for role, want := range cases {
		assert.Equal(t, want, LandingPage(role), role)
	}
}

func TestHomeBranchMissing(t *testing.T) {
	_, ok := Actor{UserID: 1, Role: enums.RoleAdmin}.HomeBranch()
	assert.False(t, ok)

	zero := uint(0)
	_, ok = Actor{UserID: 1, Role: enums.RoleCustomer, BranchID: &zero}.HomeBranch()
	assert.False(t, ok)
}
