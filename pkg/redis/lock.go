package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockHeld is returned when another holder owns the requested lock.
var ErrLockHeld = errors.New("lock held by another holder")

// ReleaseFunc gives a lock back. Releasing an expired lock is not an error.
type ReleaseFunc func(ctx context.Context) error

// Obtain takes a short-lived exclusive lock on scope/id without retrying.
func (c *Client) Obtain(ctx context.Context, scope, id string, ttl time.Duration) (ReleaseFunc, error) {
	if c.locker == nil {
		return nil, ErrNotInitialized
	}
	key := c.LockKey(scope, id)
	lock, err := c.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
