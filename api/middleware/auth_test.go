package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "bb_session"

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.Role, branchID *uint) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:   12,
		Username: "wanjiru",
		Role:     role,
		BranchID: branchID,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func captureActor(captured *actor.Actor, accessID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = actor.FromContext(r.Context())
		if accessID != nil {
			*accessID = AccessIDFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthWithoutTokenIsGuest(t *testing.T) {
	var got actor.Actor
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(captureActor(&got, nil))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/bicycles", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, got.IsAuthenticated())
	assert.Equal(t, enums.RoleGuest, got.Role)
}

func TestAuthBearerTokenBuildsActor(t *testing.T) {
	branch := uint(3)
	token := mintTestToken(t, testJWT, enums.RoleCustomer, &branch)

	var got actor.Actor
	var accessID string
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(captureActor(&got, &accessID))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, got.IsAuthenticated())
	assert.Equal(t, uint(12), got.UserID)
	assert.Equal(t, "wanjiru", got.Username)
	assert.Equal(t, enums.RoleCustomer, got.Role)
	home, ok := got.HomeBranch()
	require.True(t, ok)
	assert.Equal(t, branch, home)
	assert.NotEmpty(t, accessID)
}

func TestAuthCookieTokenBuildsActor(t *testing.T) {
	token := mintTestToken(t, testJWT, enums.RoleAdmin, nil)

	var got actor.Actor
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(captureActor(&got, nil))

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, enums.RoleAdmin, got.Role)
	assert.True(t, got.IsAuthenticated())
}

func TestAuthRevokedSessionFallsBackToGuestAndClearsCookie(t *testing.T) {
	token := mintTestToken(t, testJWT, enums.RoleAdmin, nil)

	var got actor.Actor
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: false}, nil)(captureActor(&got, nil))

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.False(t, got.IsAuthenticated())
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthInvalidTokenIsGuest(t *testing.T) {
	var got actor.Actor
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(captureActor(&got, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, got.IsAuthenticated())
}

func TestAuthSessionStoreDown(t *testing.T) {
	token := mintTestToken(t, testJWT, enums.RoleCustomer, nil)
	handler := Auth(testJWT, testCookie, stubSessionVerifier{err: errors.New("redis down")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestRequireRoles(t *testing.T) {
	branch := uint(1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireRoles(nil, enums.RoleAdmin, enums.RoleBranchManager)(ok)

	cases := []struct {
		name   string
		actor  actor.Actor
		accept string
		status int
		target string
	}{
		{name: "guest json", actor: actor.Guest(), status: http.StatusUnauthorized},
		{name: "guest browser", actor: actor.Guest(), accept: "text/html", status: http.StatusSeeOther, target: "/login"},
		{name: "customer json", actor: actor.Actor{UserID: 2, Role: enums.RoleCustomer, BranchID: &branch}, status: http.StatusForbidden},
		{name: "customer browser", actor: actor.Actor{UserID: 2, Role: enums.RoleCustomer, BranchID: &branch}, accept: "text/html", status: http.StatusSeeOther, target: "/dashboard"},
		{name: "manager", actor: actor.Actor{UserID: 3, Role: enums.RoleBranchManager, BranchID: &branch}, status: http.StatusNoContent},
		{name: "admin", actor: actor.Actor{UserID: 4, Role: enums.RoleAdmin}, status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/manage_rentals", nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			req = req.WithContext(actor.WithActor(req.Context(), tc.actor))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			assert.Equal(t, tc.status, resp.Code)
			if tc.target != "" {
				assert.Equal(t, tc.target, resp.Header().Get("Location"))
			}
		})
	}
}

func TestRequireAuthRejectsGuest(t *testing.T) {
	handler := RequireAuth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/my_rentals", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
