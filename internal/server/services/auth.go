package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/auth"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/dmitrijs2005/taskmanager/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/repomanager"
)

// Session is a signed assertion returned on successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    int64
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	jwt         *auth.JWTManager
	limiter     ratelimit.Limiter
	logger      logging.Logger

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService fails with config.ErrMissingJWTSettings when any signing
// setting is absent. A nil limiter disables throttling.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, limiter ratelimit.Limiter, l logging.Logger) (*AuthService, error) {
	jwtManager, err := auth.NewJWTManager(auth.JWTSettings{
		Key:      []byte(cfg.SecretKey),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Subject:  cfg.JWTSubject,
		TTL:      cfg.AccessTokenValidityDuration,
	})
	if err != nil {
		return nil, err
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, err
	}

	if limiter == nil {
		limiter = ratelimit.Noop{}
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		jwt:         jwtManager,
		limiter:     limiter,
		logger:      l.With("module", "auth"),
		dummyHash:   dummy,
	}, nil
}

// Login checks credentials and issues a session assertion. Unknown email
// and wrong password are indistinguishable; an unverified email is only
// reported after the password matched.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	key := ratelimit.Key(ctx, strings.ToLower(email))

	blocked, err := s.limiter.Blocked(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
	}
	if blocked {
		return nil, common.ErrTooManyAttempts
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.hasher.Verify(s.dummyHash, password)
		s.recordFailure(ctx, key)
		return nil, common.ErrInvalidCredentials
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.recordFailure(ctx, key)
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn(ctx, "login limiter reset failed", "error", err)
	}

	token, expires, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Session{Token: token, ExpiresAt: expires, UserID: user.ID}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if err := s.limiter.Failure(ctx, key); err != nil {
		s.logger.Warn(ctx, "login limiter failure not recorded", "error", err)
	}
}

// ResolveCaller returns the user id carried by a valid assertion.
func (s *AuthService) ResolveCaller(ctx context.Context, assertion string) (int64, error) {
	if assertion == "" {
		return 0, common.ErrorUnauthorized
	}

	claims, err := s.jwt.ParseToken(assertion)
	if err != nil {
		s.logger.Debug(ctx, "assertion rejected", "error", err)
		return 0, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return claims.UserID, nil
}
