package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "bikebuddy",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()
	branchID := uint(3)

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:   42,
		Username: "wanjiru",
		Role:     enums.RoleBranchManager,
		BranchID: &branchID,
		JTI:      "jti-42",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)

	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "wanjiru", claims.Username)
	assert.Equal(t, enums.RoleBranchManager, claims.Role)
	require.NotNil(t, claims.BranchID)
	assert.EqualValues(t, 3, *claims.BranchID)
	assert.Equal(t, "jti-42", claims.ID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.RoleAdmin})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Nil(t, claims.BranchID)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 7, Role: enums.RolePurchasingManager})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token+"x")
	assert.Error(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	branchID := uint(1)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		UserID:   9,
		Role:     enums.RoleCustomer,
		BranchID: &branchID,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "expired"), "unexpected error: %v", err)

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	require.NoError(t, err)
	assert.EqualValues(t, 9, claims.UserID)
}

func TestMintAccessTokenRejectsBadPayload(t *testing.T) {
	cfg := testJWTConfig(5)

	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Role: ""})
	assert.Error(t, err, "empty role")

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.RoleGuest})
	assert.Error(t, err, "guest cannot hold a token")

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Role: enums.RoleCustomer})
	assert.Error(t, err, "customer without branch")

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.RoleAdmin})
	assert.Error(t, err, "missing user id")
}
