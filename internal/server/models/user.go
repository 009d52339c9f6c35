// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID                     int64     `db:"id"`
	Username               string    `db:"username"`
	Email                  string    `db:"email"`
	PasswordHash           string    `db:"password_hash"`
	IsEmailVerified        bool      `db:"is_email_verified"`
	EmailVerificationToken *string   `db:"email_verification_token"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}
