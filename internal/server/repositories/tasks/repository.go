package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskmanager/internal/server/models"
)

// Repository stores tasks. Every lookup and mutation is scoped by owner.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Complete(ctx context.Context, userID, id int64) (*models.Task, error)
	Delete(ctx context.Context, userID, id int64) (*models.Task, error)
	DeleteAllByUser(ctx context.Context, userID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64, completed *bool) ([]*models.Task, error)
}
