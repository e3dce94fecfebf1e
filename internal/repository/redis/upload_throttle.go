package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ThrottleConfig configures the sliding-window attempt store.
type ThrottleConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// ThrottleStore persists upload attempts in Redis sorted sets, scored by
// nanosecond timestamps, so the window survives process restarts.
type ThrottleStore struct {
	client *redis.Client
	cfg    ThrottleConfig
}

// NewThrottleStore constructs a store using the provided client and config.
func NewThrottleStore(client *redis.Client, cfg ThrottleConfig) *ThrottleStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "reg:upload-throttle"
	}
	return &ThrottleStore{client: client, cfg: cfg}
}

// RecordAttempt stores the timestamp within the window and refreshes the TTL.
func (s *ThrottleStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)
	member := redis.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()}

	if err := s.client.ZAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}

	if s.cfg.TTL > 0 {
		if err := s.client.Expire(ctx, key, s.cfg.TTL).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}

	return nil
}

// CountAttempts returns how many attempts fall inside the window ending at
// the reference time.
func (s *ThrottleStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := s.key(identifier)
	min := fmt.Sprintf("%f", float64(reference.Add(-window).UnixNano()))
	max := fmt.Sprintf("%f", float64(reference.UnixNano()))

	count, err := s.client.ZCount(ctx, key, min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts older than the window relative to the reference
// time.
func (s *ThrottleStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	key := s.key(identifier)
	threshold := fmt.Sprintf("%f", float64(reference.Add(-window).UnixNano()))

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

func (s *ThrottleStore) key(identifier string) string {
	return fmt.Sprintf("%s:%s", s.cfg.KeyPrefix, identifier)
}
