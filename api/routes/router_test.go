package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/pkg/actor"
	pkgAuth "github.com/bikebuddy/bikebuddy-backend/pkg/auth"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/metrics"
	"github.com/bikebuddy/bikebuddy-backend/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalog struct {
	gotActor actor.Actor
}

func (s *stubCatalog) ListAvailable(ctx context.Context, a actor.Actor, filter bicycles.CatalogFilter, page int) (pagination.Page[bicycles.BicycleDTO], error) {
	s.gotActor = a
	return pagination.Page[bicycles.BicycleDTO]{Items: []bicycles.BicycleDTO{}, Page: page, Limit: 6}, nil
}

func (s *stubCatalog) GetDetails(ctx context.Context, a actor.Actor, id uint) (*bicycles.BicycleDTO, error) {
	return &bicycles.BicycleDTO{ID: id}, nil
}

func (s *stubCatalog) Filters(ctx context.Context) (*bicycles.Filters, error) {
	return &bicycles.Filters{}, nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Port: "0"},
		JWT:     config.JWTConfig{Secret: "router-secret", Issuer: "bikebuddy", ExpirationMinutes: 30},
		Session: config.SessionConfig{CookieName: "bb_session"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Rental:  config.RentalConfig{Currency: "KES", AdminPageSize: 10, BrowsePageSize: 6},
	}
}

func newTestRouter(t *testing.T, catalog *stubCatalog) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	router := NewRouter(Dependencies{
		Config:      cfg,
		Logger:      logger.Nop(),
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Sessions:    stubSessions{},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Catalog:     catalog,
	})
	return router, cfg
}

func tokenFor(t *testing.T, cfg *config.Config, role enums.Role, branchID *uint) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   21,
		Username: "otieno",
		Role:     role,
		BranchID: branchID,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t, &stubCatalog{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-BikeBuddy-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReady(t *testing.T) {
	router, _ := newTestRouter(t, &stubCatalog{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicCatalogAllowsGuests(t *testing.T) {
	catalog := &stubCatalog{}
	router, _ := newTestRouter(t, catalog)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bicycles", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.RoleGuest, catalog.gotActor.Role)
}

func TestCatalogSeesAuthenticatedActor(t *testing.T) {
	catalog := &stubCatalog{}
	router, cfg := newTestRouter(t, catalog)
	branch := uint(2)

	req := httptest.NewRequest(http.MethodGet, "/bicycles", nil)
	req.AddCookie(&http.Cookie{Name: "bb_session", Value: tokenFor(t, cfg, enums.RoleCustomer, &branch)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(21), catalog.gotActor.UserID)
	home, ok := catalog.gotActor.HomeBranch()
	require.True(t, ok)
	assert.Equal(t, branch, home)
}

func TestGuestIsSentToLogin(t *testing.T) {
	router, _ := newTestRouter(t, &stubCatalog{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my_rentals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/my_rentals", nil)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRoleGates(t *testing.T) {
	router, cfg := newTestRouter(t, &stubCatalog{})
	branch := uint(1)

	cases := []struct {
		name   string
		role   enums.Role
		path   string
		target string
	}{
		{name: "customer to manage_bicycles", role: enums.RoleCustomer, path: "/manage_bicycles", target: "/dashboard"},
		{name: "branch manager to manage_users", role: enums.RoleBranchManager, path: "/manage_users", target: "/manage_rentals"},
		{name: "branch manager to manage_suppliers", role: enums.RoleBranchManager, path: "/manage_suppliers", target: "/manage_rentals"},
		{name: "purchasing manager to report", role: enums.RolePurchasingManager, path: "/report", target: "/manage_purchases"},
		{name: "purchasing manager to manage_categories", role: enums.RolePurchasingManager, path: "/manage_categories", target: "/manage_purchases"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var branchID *uint
			if tc.role.RequiresBranch() {
				branchID = &branch
			}
			token := tokenFor(t, cfg, tc.role, branchID)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusForbidden, rec.Code)

			req = httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "text/html")
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.target, rec.Header().Get("Location"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubCatalog{})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bicycles/3", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "bikebuddy_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `route="/bicycles/{id}"`))
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, &stubCatalog{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
