package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/repomanager"
)

// OwnerChecker is the read-only user capability tasks depend on.
type OwnerChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// TaskInput carries the editable task fields.
type TaskInput struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     time.Time
}

func (in TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if !in.Priority.Valid() {
		return invalid("priority %d is out of range", int(in.Priority))
	}
	if in.DueDate.IsZero() {
		return invalid("due date is required")
	}
	return nil
}

// TaskService scopes every task operation to the calling owner. Tasks that
// exist but belong to someone else are reported as not found.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	owners      OwnerChecker
	logger      logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, owners OwnerChecker, l logging.Logger) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		owners:      owners,
		logger:      l.With("module", "tasks"),
	}
}

func (s *TaskService) requireOwner(ctx context.Context, ownerID int64) error {
	ok, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func validTaskID(taskID int64) error {
	if taskID <= 0 {
		return invalid("task id must be positive")
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in TaskInput) (*models.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "task created", "user_id", ownerID, "task_id", task.ID)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID int64) (*models.Task, error) {
	if err := validTaskID(taskID); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).GetByID(ctx, ownerID, taskID)
}

// Update replaces every editable field of an owned task.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, in TaskInput, isCompleted bool) (*models.Task, error) {
	if err := validTaskID(taskID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	return s.repomanager.Tasks(s.db).Update(ctx, &models.Task{
		ID:          taskID,
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		IsCompleted: isCompleted,
	})
}

// Complete marks an owned task done. Completing it again is a no-op.
func (s *TaskService) Complete(ctx context.Context, ownerID, taskID int64) (*models.Task, error) {
	if err := validTaskID(taskID); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).Complete(ctx, ownerID, taskID)
}

// Delete removes an owned task and returns its last state.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) (*models.Task, error) {
	if err := validTaskID(taskID); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	task, err := s.repomanager.Tasks(s.db).Delete(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "task deleted", "user_id", ownerID, "task_id", taskID)
	return task, nil
}

// ListAll returns the owner's tasks ordered by due date, then id.
func (s *TaskService) ListAll(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	return s.list(ctx, ownerID, nil)
}

func (s *TaskService) ListByStatus(ctx context.Context, ownerID int64, isCompleted bool) ([]*models.Task, error) {
	return s.list(ctx, ownerID, &isCompleted)
}

func (s *TaskService) list(ctx context.Context, ownerID int64, completed *bool) ([]*models.Task, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).ListByUser(ctx, ownerID, completed)
}
