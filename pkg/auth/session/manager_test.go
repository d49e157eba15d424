package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func TestManagerLifecycle(t *testing.T) {
	store := newMockStore()
	manager, err := newManager(store, 30*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	accountID := uuid.New()
	accessID := NewAccessID()

	require.NoError(t, manager.Open(ctx, accessID, accountID))
	assert.Equal(t, accountID.String(), store.data["sess:"+accessID])
	assert.Equal(t, 30*time.Minute, store.ttls["sess:"+accessID])

	require.NoError(t, manager.Verify(ctx, accessID, accountID))
	assert.ErrorIs(t, manager.Verify(ctx, accessID, uuid.New()), ErrOwnerMismatch)

	require.NoError(t, manager.Revoke(ctx, accessID))
	assert.ErrorIs(t, manager.Verify(ctx, accessID, accountID), ErrRevoked)
}

func TestManagerRejectsBlankAccessID(t *testing.T) {
	manager, err := newManager(newMockStore(), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, manager.Open(ctx, " ", uuid.New()), ErrMissingAccessID)
	assert.ErrorIs(t, manager.Verify(ctx, "", uuid.New()), ErrMissingAccessID)
	assert.ErrorIs(t, manager.Revoke(ctx, ""), ErrMissingAccessID)
}

func TestNewManagerRequiresPositiveTTL(t *testing.T) {
	_, err := newManager(newMockStore(), 0)
	require.Error(t, err)

	_, err = NewManager(nil, config.JWTConfig{ExpirationMinutes: 60})
	require.Error(t, err)
}

type failingStore struct{ *mockStore }

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}

func TestManagerSurfacesStoreErrors(t *testing.T) {
	manager, err := newManager(failingStore{newMockStore()}, time.Hour)
	require.NoError(t, err)

	err = manager.Verify(context.Background(), "abc", uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRevoked)
}
