package users

import (
	"context"

	"github.com/dmitrijs2005/taskmanager/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SetVerificationToken(ctx context.Context, id int64, token string) error
	ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}
