// Package services contains server-side business logic: the user
// directory, authentication and owner-scoped task operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/dbx"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/auth"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/dmitrijs2005/taskmanager/internal/server/mailer"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/repomanager"
)

// notifyTimeout bounds a background verification mail.
const notifyTimeout = 10 * time.Second

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type TokenGenerator interface {
	Generate() (string, error)
}

// Notifier delivers verification links. Delivery is best-effort.
type Notifier interface {
	SendVerificationLink(ctx context.Context, to, link string) error
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenGenerator
	notifier    Notifier
	baseURL     string
	logger      logging.Logger

	pending sync.WaitGroup
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, n Notifier, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      auth.NewBcryptHasher(cfg.BcryptCost),
		tokens:      auth.NewTokenIssuer(),
		notifier:    n,
		baseURL:     cfg.BaseURL,
		logger:      l.With("module", "users"),
	}
}

// Register creates an unverified user and mails the verification link in
// the background. A mail failure never undoes the registration.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrorConflict
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:               username,
		Email:                  email,
		PasswordHash:           hash,
		EmailVerificationToken: &token,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	s.sendVerification(ctx, user.Email, token)

	return user, nil
}

// ResendVerification issues a fresh token for an unverified user. Unknown
// and already verified emails succeed silently.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email is required")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if user.IsEmailVerified {
		return nil
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if err := repo.SetVerificationToken(ctx, user.ID, token); err != nil {
		// verified or deleted in the meantime
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	s.sendVerification(ctx, user.Email, token)
	return nil
}

// sendVerification mails the link on its own goroutine with a context that
// outlives the request. Panics and errors are logged and swallowed.
func (s *UserService) sendVerification(ctx context.Context, to, token string) {
	if s.notifier == nil {
		return
	}
	link := mailer.VerificationLink(s.baseURL, token)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error(mailCtx, "verification mail panicked", "panic", r)
			}
		}()

		if err := s.notifier.SendVerificationLink(mailCtx, to, link); err != nil {
			s.logger.Error(mailCtx, "verification mail failed", "error", err)
			return
		}
		s.logger.Debug(mailCtx, "verification mail sent")
	}()
}

// Wait blocks until background mails started so far have finished.
func (s *UserService) Wait() {
	s.pending.Wait()
}

// UpdateProfile replaces the username when given and re-hashes the
// password only when a non-blank one is given.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, username, password *string) (*models.User, error) {
	if userID <= 0 {
		return nil, invalid("user id must be positive")
	}
	if username != nil {
		if err := validateUsername(*username); err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != nil {
		user.Username = *username
	}
	if password != nil && strings.TrimSpace(*password) != "" {
		hash, err := s.hasher.Hash(*password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	return repo.Update(ctx, user)
}

// Delete removes the user and every task they own in one transaction.
func (s *UserService) Delete(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, invalid("user id must be positive")
	}

	var deleted *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		n, err := s.repomanager.Tasks(tx).DeleteAllByUser(ctx, userID)
		if err != nil {
			return err
		}

		if err := users.Delete(ctx, userID); err != nil {
			return err
		}

		s.logger.Info(ctx, "user deleted", "user_id", userID, "tasks", n)
		deleted = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// VerifyEmail consumes a verification token. Blank, unknown and already
// used tokens all fail with common.ErrInvalidToken.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, invalid("user id must be positive")
	}
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalid("email is required")
	}
	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// Exists reports whether a user with the id is present.
func (s *UserService) Exists(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	return s.repomanager.Users(s.db).Exists(ctx, userID)
}
