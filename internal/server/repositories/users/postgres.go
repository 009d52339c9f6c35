package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/dbx"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
)

const userColumns = `id, username, email, password_hash, is_email_verified, email_verification_token, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var token sql.NullString

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsEmailVerified, &token, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}

	if token.Valid {
		user.EmailVerificationToken = &token.String
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash, is_email_verified, email_verification_token)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsEmailVerified, user.EmailVerificationToken).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, dbx.StoreError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail matches the email exactly as stored.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Update persists username and password hash.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET username = $2, password_hash = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.PasswordHash))
}

// SetVerificationToken replaces the pending token of an unverified user.
func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id int64, token string) error {
	query :=
		`UPDATE users SET email_verification_token = $2, updated_at = now()
		 WHERE id = $1 AND is_email_verified = FALSE`

	res, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return dbx.StoreError(err)
	}
	return affectedOne(res)
}

// ConsumeVerificationToken marks the owner of token verified and clears the
// token in one statement, so a token can only be consumed once.
func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query :=
		`UPDATE users SET is_email_verified = TRUE, email_verification_token = NULL, updated_at = now()
		 WHERE email_verification_token = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return dbx.StoreError(err)
	}
	return affectedOne(res)
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, dbx.StoreError(err)
	}
	return exists, nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StoreError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
