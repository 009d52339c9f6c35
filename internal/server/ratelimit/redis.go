package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_attempts:"

var ErrRedisNotReady = errors.New("redis is not ready")

// counter is the part of redis.Cmdable the limiter needs.
type counter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLimiter is a fixed-window counter. The first failure that manages to
// set a TTL starts the window and the key expires with it.
type RedisLimiter struct {
	client   counter
	settings Settings
}

func NewRedisLimiter(client counter, s Settings) *RedisLimiter {
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 5
	}
	if s.Window <= 0 {
		s.Window = 15 * time.Minute
	}
	return &RedisLimiter{client: client, settings: s}
}

func (l *RedisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, keyPrefix+key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("read attempts: %w", err)
	}
	return n >= l.settings.MaxAttempts, nil
}

func (l *RedisLimiter) Failure(ctx context.Context, key string) error {
	k := keyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	// NX leaves a running window alone and gives a key that lost its
	// first EXPIRE a TTL on the next failure.
	if err := l.client.ExpireNX(ctx, k, l.settings.Window).Err(); err != nil {
		return fmt.Errorf("set attempts window (count %d): %w", n, err)
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// Connect parses a redis:// URL and pings the server before returning the client.
func Connect(ctx context.Context, url string, timeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	return client, nil
}

// Healthcheck returns a readiness probe for the client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrRedisNotReady, err)
		}
		return nil
	}
}
