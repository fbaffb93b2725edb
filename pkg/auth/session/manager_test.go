package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	sets   map[string]map[string]struct{}
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) AddToSet(_ context.Context, key, member string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	m.sets[key][member] = struct{}{}
	return nil
}

func (m *mockStore) SetMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockStore) RemoveFromSet(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[key], member)
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func (m *mockStore) UserSessionsKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, ttl: time.Hour, now: time.Now}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 10, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)

	_, err = NewManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err, "refresh ttl must exceed access ttl")

	m, err := NewManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 10, RefreshTokenTTLMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.ttl)
}

func TestGenerateStoresDigestNotToken(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)

	token, err := manager.Generate(context.Background(), "access-1", 9)
	require.NoError(t, err)

	stored := store.data[store.AccessSessionKey("access-1")]
	assert.NotContains(t, stored, token)
	assert.Contains(t, stored, digest(token))
	assert.Contains(t, store.sets["user:9"], "access-1")
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123", 4)
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, "access-123", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-123", newAccessID)
	assert.NotEqual(t, token, newToken)
	_, exists := store.data[store.AccessSessionKey("access-123")]
	assert.False(t, exists, "old access key left behind")
	assert.NotContains(t, store.sets["user:4"], "access-123")
	assert.Contains(t, store.sets["user:4"], newAccessID)

	_, _, err = manager.Rotate(ctx, "access-123", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "rotated session cannot be reused")

	_, _, err = manager.Rotate(ctx, newAccessID, newToken)
	assert.NoError(t, err)
}

func TestManagerRevokeEndsSession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	_, err := manager.Generate(ctx, "jti-1", 3)
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "jti-1"))
	require.NoError(t, manager.Revoke(ctx, "jti-1"), "second revoke is a no-op")

	ok, err = manager.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.sets["user:3"])

	assert.Error(t, manager.Revoke(ctx, " "))
	_, err = manager.Generate(ctx, "", 3)
	assert.Error(t, err)
	_, err = manager.Generate(ctx, "jti-2", 0)
	assert.Error(t, err)
}

func TestRevokeUserEndsEverySession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := manager.Generate(ctx, id, 12)
		require.NoError(t, err)
	}
	_, err := manager.Generate(ctx, "other", 13)
	require.NoError(t, err)

	n, err := manager.RevokeUser(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"a", "b"} {
		ok, err := manager.HasSession(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := manager.HasSession(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasSessionSurfacesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	_, err := newTestManager(store).HasSession(context.Background(), "jti")
	assert.Error(t, err)
}
