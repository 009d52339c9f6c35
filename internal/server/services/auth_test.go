package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/auth"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/dmitrijs2005/taskmanager/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter blocks once a key has max failures.
type countingLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
	resets   int
	err      error
}

func (l *countingLimiter) Blocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] >= l.max, nil
}

func (l *countingLimiter) Failure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures == nil {
		l.failures = map[string]int{}
	}
	l.failures[key]++
	return l.err
}

func (l *countingLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	l.resets++
	return l.err
}

func TestNewAuthService_MissingJWTSettings(t *testing.T) {
	for name, mutate := range map[string]func(*config.Config){
		"key":      func(c *config.Config) { c.SecretKey = "" },
		"issuer":   func(c *config.Config) { c.JWTIssuer = "" },
		"audience": func(c *config.Config) { c.JWTAudience = "" },
		"subject":  func(c *config.Config) { c.JWTSubject = "" },
	} {
		cfg := testConfig()
		mutate(cfg)
		s, err := NewAuthService(nil, &fakeRepoManager{s: newMemStore()}, cfg, nil, logging.Nop{})
		assert.ErrorIs(t, err, config.ErrMissingJWTSettings, name)
		assert.Nil(t, s, name)
	}
}

func TestLogin_FullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.verified(t, "alice", "a@x.com", "Secr3t!")

	session, err := f.auth.Login(ctx, "a@x.com", "Secr3t!")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, u.ID, session.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	id, err := f.auth.ResolveCaller(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "Secr3t!")

	_, err := f.auth.Login(context.Background(), "a@x.com", "Secr3t!")
	assert.ErrorIs(t, err, common.ErrEmailNotVerified)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.com", "Secr3t!")

	_, wrongPassword := f.auth.Login(ctx, "a@x.com", "wrong")
	_, unknownEmail := f.auth.Login(ctx, "ghost@x.com", "Secr3t!")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, common.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_BlankCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.auth.Login(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_StoreFailureIsNotCredentials(t *testing.T) {
	f := newFixture(t)
	f.store.err = common.ErrorStoreUnavailable

	_, err := f.auth.Login(context.Background(), "a@x.com", "Secr3t!")
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verified(t, "alice", "a@x.com", "Secr3t!")

	limiter := &countingLimiter{max: 2}
	f.auth.limiter = limiter

	for range 2 {
		_, err := f.auth.Login(ctx, "A@x.com", "wrong")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	}

	_, err := f.auth.Login(ctx, "a@x.com", "Secr3t!")
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)

	limiter.failures = nil
	_, err = f.auth.Login(ctx, "a@x.com", "Secr3t!")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.resets)
}

func TestLogin_ThrottlingIsPerClient(t *testing.T) {
	f := newFixture(t)
	f.verified(t, "alice", "a@x.com", "Secr3t!")
	f.auth.limiter = &countingLimiter{max: 2}

	attacker := ratelimit.WithClient(context.Background(), "198.51.100.7")
	owner := ratelimit.WithClient(context.Background(), "203.0.113.9")

	for range 3 {
		_, err := f.auth.Login(attacker, "a@x.com", "guess")
		require.Error(t, err)
	}
	_, err := f.auth.Login(attacker, "a@x.com", "Secr3t!")
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)

	_, err = f.auth.Login(owner, "a@x.com", "Secr3t!")
	require.NoError(t, err)
}

func TestLogin_LimiterErrorsFailOpen(t *testing.T) {
	f := newFixture(t)
	f.verified(t, "alice", "a@x.com", "Secr3t!")
	f.auth.limiter = &countingLimiter{max: 1, err: errors.New("redis down")}

	_, err := f.auth.Login(context.Background(), "a@x.com", "Secr3t!")
	assert.NoError(t, err)
}

func TestResolveCaller_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.ResolveCaller(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.auth.ResolveCaller(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	other, err := auth.NewJWTManager(auth.JWTSettings{
		Key: []byte("other-secret"), Issuer: "taskmanager", Audience: "taskmanager-clients", Subject: "session", TTL: time.Hour,
	})
	require.NoError(t, err)
	forged, _, err := other.GenerateToken(1, "a@x.com")
	require.NoError(t, err)

	_, err = f.auth.ResolveCaller(ctx, forged)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
