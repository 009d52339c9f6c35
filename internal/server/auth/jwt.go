// Package auth holds the server-side credential primitives: password
// hashing, verification token generation and signed session assertions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTSettings configures signing and validation of session assertions.
type JWTSettings struct {
	Key      []byte
	Issuer   string
	Audience string
	Subject  string
	TTL      time.Duration
}

// Claims are the registered claims plus the authenticated user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// JWTManager signs and parses HS256 session assertions.
type JWTManager struct {
	settings JWTSettings
	now      func() time.Time
}

// NewJWTManager fails with config.ErrMissingJWTSettings when the key,
// issuer, audience or subject is empty.
func NewJWTManager(s JWTSettings) (*JWTManager, error) {
	if len(s.Key) == 0 || s.Issuer == "" || s.Audience == "" || s.Subject == "" {
		return nil, config.ErrMissingJWTSettings
	}
	if s.TTL <= 0 {
		return nil, config.ErrInvalidTokenTTL
	}
	return &JWTManager{settings: s, now: time.Now}, nil
}

// GenerateToken returns a signed assertion for the user and its expiry.
func (m *JWTManager) GenerateToken(userID int64, email string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.settings.TTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   m.settings.Subject,
			Issuer:    m.settings.Issuer,
			Audience:  jwt.ClaimStrings{m.settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: userID,
		Email:  email,
	})

	signed, err := token.SignedString(m.settings.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// ParseToken validates signature, algorithm, expiry, issuer, audience and
// subject. Any failure is reported as common.ErrInvalidToken.
func (m *JWTManager) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.settings.Key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.settings.Issuer),
		jwt.WithAudience(m.settings.Audience),
		jwt.WithSubject(m.settings.Subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
