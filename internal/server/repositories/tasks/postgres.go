// Package tasks is the PostgreSQL task store.
package tasks

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/dbx"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
)

const taskColumns = `id, user_id, title, description, priority, due_date, is_completed, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func one(row *sql.Row) (*models.Task, error) {
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (user_id, title, description, priority, due_date, is_completed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + taskColumns

	return one(r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Description, int(task.Priority), task.DueDate, task.IsCompleted))
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return one(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET title = $3, description = $4, priority = $5, due_date = $6, is_completed = $7, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	return one(r.db.QueryRowContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, int(task.Priority), task.DueDate, task.IsCompleted))
}

func (r *PostgresRepository) Complete(ctx context.Context, userID, id int64) (*models.Task, error) {
	query :=
		`UPDATE tasks SET is_completed = TRUE, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	return one(r.db.QueryRowContext(ctx, query, id, userID))
}

// Delete removes the task and returns its last state.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) (*models.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2 RETURNING ` + taskColumns
	return one(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, dbx.StoreError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.StoreError(err)
	}
	return n, nil
}

// ListByUser returns the owner's tasks ordered by due date, then id.
// A nil completed returns every task.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, completed *bool) ([]*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE user_id = $1 AND ($2::boolean IS NULL OR is_completed = $2)
		 ORDER BY due_date, id`

	status := sql.NullBool{}
	if completed != nil {
		status = sql.NullBool{Bool: *completed, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, userID, status)
	if err != nil {
		return nil, dbx.StoreError(err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, dbx.StoreError(err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StoreError(err)
	}
	return result, nil
}
