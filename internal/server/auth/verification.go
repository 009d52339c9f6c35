package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// VerificationTokenBytes is the amount of entropy in a verification token.
const VerificationTokenBytes = 32

// TokenIssuer produces single-use email verification tokens.
type TokenIssuer struct {
	rand io.Reader
}

func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{rand: rand.Reader}
}

// Generate returns 32 random bytes encoded as unpadded URL-safe base64.
func (i *TokenIssuer) Generate() (string, error) {
	b := make([]byte, VerificationTokenBytes)
	if _, err := io.ReadFull(i.rand, b); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
