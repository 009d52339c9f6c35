package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskmanager/internal/common"
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 100
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorInvalidInput, fmt.Sprintf(format, args...))
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return invalid("username must be at most %d characters", maxUsernameLen)
	}
	return nil
}

// validateEmail accepts a bare RFC 5322 address whose domain has at least
// one dot. Display names ("Alice <a@x.com>") are rejected.
func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return invalid("email must be at most %d characters", maxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not a valid address")
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("email is not a valid address")
	}
	for part := range strings.SplitSeq(domain, ".") {
		if part == "" {
			return invalid("email is not a valid address")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return invalid("password is required")
	}
	return nil
}
