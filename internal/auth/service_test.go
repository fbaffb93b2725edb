package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	pkgAuth "github.com/bikebuddy/bikebuddy-backend/pkg/auth"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/dbtest"
	"github.com/bikebuddy/bikebuddy-backend/pkg/db/models"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/bikebuddy/bikebuddy-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fastArgon = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	testJWT   = config.JWTConfig{Secret: "test-secret", Issuer: "bikebuddy", ExpirationMinutes: 30, RefreshTokenTTLMinutes: 60}
	fixedNow  = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
)

type stubSessionManager struct {
	tokens  map[string]string
	owners  map[string]uint
	revoked []string
	next    int
	genErr  error
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}, owners: map[string]uint{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string, userID uint) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	s.next++
	token := accessID + "-refresh"
	s.tokens[accessID] = token
	s.owners[accessID] = userID
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.tokens[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	owner := s.owners[oldAccessID]
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token, err := s.Generate(ctx, newID, owner)
	return newID, token, err
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubUserRepo struct {
	findErr error
}

func (s stubUserRepo) FindByIdentifier(context.Context, string) (*models.User, error) {
	return nil, s.findErr
}

func (s stubUserRepo) FindByID(context.Context, uint) (*models.User, error) {
	return nil, s.findErr
}

func (s stubUserRepo) UpdateLastLogin(context.Context, uint, time.Time) error {
	return nil
}

func (s stubUserRepo) UpdatePasswordHash(context.Context, uint, string) error {
	return nil
}

func buildTestService(t *testing.T) (Service, *db.Client, *stubSessionManager) {
	t.Helper()
	client := dbtest.Open(t)
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		DB:             client,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: fastArgon,
		Now:            func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, client, sessions
}

func seedUserWithPassword(t *testing.T, client *db.Client, username, password string, role enums.Role, branchID *uint) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, fastArgon)
	require.NoError(t, err)
	user, err := users.NewRepository(client.DB()).Create(context.Background(), users.CreateUserDTO{
		Username:     username,
		Email:        username + "@bikebuddy.test",
		PasswordHash: hash,
		Role:         role,
		BranchID:     branchID,
	})
	require.NoError(t, err)
	return user
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{SessionManager: newStubSessionManager()})
	require.Error(t, err)

	_, err = NewService(ServiceParams{DB: dbtest.Open(t)})
	require.Error(t, err)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, client, sessions := buildTestService(t)
	ctx := context.Background()
	branch := dbtest.SeedBranch(t, client.DB(), "Kilimani")
	seedUserWithPassword(t, client, "wanjiru", "pedal-power", enums.RoleBranchManager, &branch.ID)

	resp, err := svc.Login(ctx, LoginRequest{Identifier: "wanjiru", Password: "pedal-power"})
	require.NoError(t, err)
	assert.Equal(t, "/manage_rentals", resp.Redirect)
	assert.Equal(t, sessions.tokens[resp.AccessID], resp.RefreshToken)
	assert.Equal(t, resp.User.ID, sessions.owners[resp.AccessID])
	require.NotNil(t, resp.User.LastLoginAt)
	assert.True(t, resp.User.LastLoginAt.Equal(fixedNow))

	claims, err := pkgAuth.ParseAccessTokenAllowExpired(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleBranchManager, claims.Role)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, branch.ID, *claims.BranchID)
	assert.Equal(t, resp.AccessID, claims.ID)

	resp, err = svc.Login(ctx, LoginRequest{Identifier: "WANJIRU@bikebuddy.test", Password: "pedal-power"})
	require.NoError(t, err)
	assert.Equal(t, "wanjiru", resp.User.Username)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	svc, client, _ := buildTestService(t)
	ctx := context.Background()
	seedUserWithPassword(t, client, "otieno", "correct-horse", enums.RoleAdmin, nil)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Identifier: "otieno", Password: "battery-staple"})
	assertCode(t, wrongPassword, pkgerrors.CodeUnauthorized)

	_, unknownUser := svc.Login(ctx, LoginRequest{Identifier: "nobody", Password: "battery-staple"})
	assertCode(t, unknownUser, pkgerrors.CodeUnauthorized)

	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, empty := svc.Login(ctx, LoginRequest{Identifier: " ", Password: ""})
	assertCode(t, empty, pkgerrors.CodeUnauthorized)
}

func TestLoginSurfacesStoreFailures(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		DB:             client,
		UserRepo:       stubUserRepo{findErr: errors.New("connection reset")},
		SessionManager: newStubSessionManager(),
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Identifier: "anyone", Password: "whatever1"})
	assertCode(t, err, pkgerrors.CodeDependency)
}

func TestLoginFailsWhenSessionStoreDown(t *testing.T) {
	svc, client, sessions := buildTestService(t)
	seedUserWithPassword(t, client, "kamau", "mountain-bike", enums.RoleAdmin, nil)
	sessions.genErr = errors.New("redis down")

	_, err := svc.Login(context.Background(), LoginRequest{Identifier: "kamau", Password: "mountain-bike"})
	assertCode(t, err, pkgerrors.CodeDependency)
}

func TestSignupDefaultsToLowestBranch(t *testing.T) {
	svc, client, _ := buildTestService(t)
	ctx := context.Background()
	first := dbtest.SeedBranch(t, client.DB(), "CBD")
	dbtest.SeedBranch(t, client.DB(), "Karen")

	resp, err := svc.Signup(ctx, SignupRequest{
		Username:        "njeri",
		Email:           " Njeri@Example.com ",
		Password:        "ride-safe-123",
		ConfirmPassword: "ride-safe-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", resp.Redirect)
	assert.Equal(t, enums.RoleCustomer, resp.User.Role)
	assert.Equal(t, "njeri@example.com", resp.User.Email)
	require.NotNil(t, resp.User.BranchID)
	assert.Equal(t, first.ID, *resp.User.BranchID)

	login, err := svc.Login(ctx, LoginRequest{Identifier: "njeri", Password: "ride-safe-123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestSignupHonorsChosenBranch(t *testing.T) {
	svc, client, _ := buildTestService(t)
	dbtest.SeedBranch(t, client.DB(), "CBD")
	second := dbtest.SeedBranch(t, client.DB(), "Karen")

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Username: "baraka", Email: "baraka@example.com",
		Password: "ride-safe-123", ConfirmPassword: "ride-safe-123",
		BranchID: &second.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, *resp.User.BranchID)

	_, err = svc.Signup(context.Background(), SignupRequest{
		Username: "halima", Email: "halima@example.com",
		Password: "ride-safe-123", ConfirmPassword: "ride-safe-123",
		BranchID: dbtest.Ptr(uint(999)),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestSignupWithoutBranchesIsDisabled(t *testing.T) {
	svc, _, _ := buildTestService(t)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "zawadi", Email: "zawadi@example.com",
		Password: "ride-safe-123", ConfirmPassword: "ride-safe-123",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, err.Error(), "registration is currently disabled")
}

func TestSignupValidationAndConflicts(t *testing.T) {
	svc, client, _ := buildTestService(t)
	ctx := context.Background()
	dbtest.SeedBranch(t, client.DB(), "CBD")

	_, err := svc.Signup(ctx, SignupRequest{Username: "juma", Email: "juma@example.com", Password: "short", ConfirmPassword: "short"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Signup(ctx, SignupRequest{Username: "juma", Email: "juma@example.com", Password: "long-enough-1", ConfirmPassword: "long-enough-2"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Signup(ctx, SignupRequest{Username: "juma", Email: "juma@example.com", Password: "long-enough-1", ConfirmPassword: "long-enough-1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Username: "juma", Email: "other@example.com", Password: "long-enough-1", ConfirmPassword: "long-enough-1"})
	assertCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.Signup(ctx, SignupRequest{Username: "juma2", Email: "JUMA@example.com", Password: "long-enough-1", ConfirmPassword: "long-enough-1"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, client, sessions := buildTestService(t)
	ctx := context.Background()
	seedUserWithPassword(t, client, "akinyi", "pedal-power", enums.RolePurchasingManager, nil)

	login, err := svc.Login(ctx, LoginRequest{Identifier: "akinyi", Password: "pedal-power"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessID, refreshed.AccessID)
	assert.Equal(t, "/manage_purchases", refreshed.Redirect)
	_, oldStillLive := sessions.tokens[login.AccessID]
	assert.False(t, oldStillLive)

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: "x"})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := buildTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, ""))
	assert.Empty(t, sessions.revoked)

	require.NoError(t, svc.Logout(ctx, "access-1"))
	assert.Equal(t, []string{"access-1"}, sessions.revoked)
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	cfg := config.BootstrapConfig{AdminUsername: "root", AdminEmail: "Root@BikeBuddy.test", AdminPassword: "super-secret"}

	user, created, err := BootstrapAdmin(ctx, client, cfg, fastArgon)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, enums.RoleAdmin, user.Role)
	assert.Equal(t, "root@bikebuddy.test", user.Email)

	again, created, err := BootstrapAdmin(ctx, client, cfg, fastArgon)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	none, created, err := BootstrapAdmin(ctx, client, config.BootstrapConfig{}, fastArgon)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, none)
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	svc, client, _ := buildTestService(t)
	ctx := context.Background()
	branch := dbtest.SeedBranch(t, client.DB(), "Lavington")

	older := fastArgon
	older.ArgonTime = 2
	hash, err := security.HashPassword("pedal-power", older)
	require.NoError(t, err)
	user, err := users.NewRepository(client.DB()).Create(ctx, users.CreateUserDTO{
		Username:     "kamau",
		Email:        "kamau@bikebuddy.test",
		PasswordHash: hash,
		Role:         enums.RoleCustomer,
		BranchID:     &branch.ID,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Identifier: "kamau", Password: "pedal-power"})
	require.NoError(t, err)

	reloaded, err := users.NewRepository(client.DB()).FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hash, reloaded.PasswordHash)
	assert.False(t, security.NeedsRehash(reloaded.PasswordHash, fastArgon))

	_, err = svc.Login(ctx, LoginRequest{Identifier: "kamau", Password: "pedal-power"})
	require.NoError(t, err)
}
