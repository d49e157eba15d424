// Package session keeps a Redis record per issued access token so a token
// stops working at logout even though its signature is still valid.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	redisclient "github.com/angelmondragon/stockledger-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var (
	ErrMissingAccessID = errors.New("access id is required")
	// ErrRevoked means the session expired or was closed by logout.
	ErrRevoked = errors.New("session revoked")
	// ErrOwnerMismatch means the session belongs to a different account
	// than the token presenting it.
	ErrOwnerMismatch = errors.New("session owner mismatch")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Verifier is the read side used by the auth middleware.
type Verifier interface {
	Verify(ctx context.Context, accessID string, accountID uuid.UUID) error
}

// Manager opens, verifies and revokes access sessions. Sessions live exactly
// as long as the access token they back.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, cfg.AccessTTL())
}

func newManager(s store, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	return &Manager{store: s, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	id := strings.TrimSpace(accessID)
	if id == "" {
		return "", ErrMissingAccessID
	}
	return m.store.AccessSessionKey(id), nil
}

// Open records accountID as the owner of accessID.
func (m *Manager) Open(ctx context.Context, accessID string, accountID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, accountID.String(), m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Verify returns nil only for a live session owned by accountID. Store
// failures are returned unwrapped so callers can tell them from ErrRevoked.
func (m *Manager) Verify(ctx context.Context, accessID string, accountID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	owner, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return ErrRevoked
	case err != nil:
		return err
	case owner != accountID.String():
		return ErrOwnerMismatch
	}
	return nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}
