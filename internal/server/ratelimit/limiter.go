// Package ratelimit throttles repeated failed logins per key.
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts failures for a key within a window.
type Limiter interface {
	// Blocked reports whether the key has used up its attempts.
	Blocked(ctx context.Context, key string) (bool, error)
	// Failure records one failed attempt.
	Failure(ctx context.Context, key string) error
	// Reset forgets all failures for the key.
	Reset(ctx context.Context, key string) error
}

// Settings for a fixed-window failure counter.
type Settings struct {
	MaxAttempts int
	Window      time.Duration
}

// Noop never blocks.
type Noop struct{}

func (Noop) Blocked(context.Context, string) (bool, error) { return false, nil }
func (Noop) Failure(context.Context, string) error         { return nil }
func (Noop) Reset(context.Context, string) error           { return nil }

type clientKey struct{}

// WithClient records the address failures are counted against, next to
// the subject passed to Key.
func WithClient(ctx context.Context, addr string) context.Context {
	if addr == "" {
		return ctx
	}
	return context.WithValue(ctx, clientKey{}, addr)
}

// Key scopes subject to the client stored by WithClient, so failures from
// one address cannot lock the subject out for everyone else.
func Key(ctx context.Context, subject string) string {
	addr, _ := ctx.Value(clientKey{}).(string)
	if addr == "" {
		return subject
	}
	return subject + "|" + addr
}
