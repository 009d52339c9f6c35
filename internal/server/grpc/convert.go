package grpc

import (
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/api"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/services"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func taskToAPI(t *models.Task) *api.Task {
	return &api.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		DueDate:     t.DueDate,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func taskResponse(t *models.Task) (*api.TaskResponse, error) {
	at := taskToAPI(t)
	etag, err := api.ETag(at)
	if err != nil {
		return nil, err
	}
	return &api.TaskResponse{Task: at, ETag: etag}, nil
}

func taskInput(title, description, priority string, due time.Time) (services.TaskInput, error) {
	p, err := models.ParsePriority(priority)
	if err != nil {
		return services.TaskInput{}, err
	}
	return services.TaskInput{
		Title:       title,
		Description: description,
		Priority:    p,
		DueDate:     due,
	}, nil
}
