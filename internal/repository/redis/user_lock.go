package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
)

// releaseScript deletes the lease key only when the caller still owns it.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// UserLockConfig tunes the per-user lease behaviour.
type UserLockConfig struct {
	KeyPrefix  string
	LeaseTTL   time.Duration
	RetryDelay time.Duration
}

// UserLock serializes outcome recordings per user id across service
// instances using a Redis SET NX lease. The lease TTL bounds how long a
// crashed holder can block other recorders.
type UserLock struct {
	client *redis.Client
	cfg    UserLockConfig
}

// NewUserLock constructs a lock using the provided Redis client and config.
func NewUserLock(client *redis.Client, cfg UserLockConfig) *UserLock {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "reg:user-lock"
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 5 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 25 * time.Millisecond
	}
	return &UserLock{client: client, cfg: cfg}
}

// Acquire blocks until the per-user lease is granted or ctx is done.
func (l *UserLock) Acquire(ctx context.Context, userID string) (func(), error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	key := fmt.Sprintf("%s:%s", l.cfg.KeyPrefix, userID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.LeaseTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.RetryDelay):
		}
	}

	release := func() {
		// Release runs on a fresh context so a cancelled caller still
		// returns the lease instead of waiting for TTL expiry.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err()
	}

	return release, nil
}

var _ port.UserLocker = (*UserLock)(nil)
