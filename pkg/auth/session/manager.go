package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the Redis surface sessions live in; *redis.Client satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	RemoveFromSet(ctx context.Context, key, member string) error
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID uint) string
}

// record is what is stored under a session key. Only a digest of the
// refresh token is kept.
type record struct {
	UserID      uint      `json:"user_id"`
	RefreshHash string    `json:"refresh_hash"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Manager owns the server side of a login: one record per access id, living
// as long as its refresh token, plus a per-user index so every session of an
// account can be revoked when its role changes or it is deleted.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// NewAccessID produces the identifier used as the JWT jti and the session key.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for userID under accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uint) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	if userID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.put(ctx, accessID, userID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the refresh token presented for oldAccessID, then replaces the
// session with a fresh access id and refresh token for the same user.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}
	rec, err := m.load(ctx, oldAccessID)
	if err != nil {
		return "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(rec.RefreshHash), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.put(ctx, newAccessID, rec.UserID, newToken); err != nil {
		return "", "", err
	}
	if err := m.drop(ctx, oldAccessID, rec.UserID); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke ends one session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	rec, err := m.load(ctx, accessID)
	switch {
	case errors.Is(err, ErrInvalidRefreshToken):
		return nil
	case err != nil:
		return err
	}
	return m.drop(ctx, accessID, rec.UserID)
}

// RevokeUser ends every session of userID and reports how many were open.
func (m *Manager) RevokeUser(ctx context.Context, userID uint) (int, error) {
	index := m.store.UserSessionsKey(userID)
	ids, err := m.store.SetMembers(ctx, index)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, m.store.AccessSessionKey(id))
	}
	keys = append(keys, index)
	if err := m.store.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// HasSession reports whether accessID still has a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Manager) put(ctx context.Context, accessID string, userID uint, token string) error {
	payload, err := json.Marshal(record{UserID: userID, RefreshHash: digest(token), IssuedAt: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return err
	}
	return m.store.AddToSet(ctx, m.store.UserSessionsKey(userID), accessID, m.ttl)
}

func (m *Manager) load(ctx context.Context, accessID string) (*record, error) {
	raw, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, ErrInvalidRefreshToken
	}
	return &rec, nil
}

func (m *Manager) drop(ctx context.Context, accessID string, userID uint) error {
	return multierr.Append(
		m.store.Del(ctx, m.store.AccessSessionKey(accessID)),
		m.store.RemoveFromSet(ctx, m.store.UserSessionsKey(userID), accessID),
	)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
