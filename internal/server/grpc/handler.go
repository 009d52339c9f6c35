package grpc

import (
	"context"

	"github.com/dmitrijs2005/taskmanager/internal/api"
	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/ratelimit"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fail logs unexpected failures with their cause and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, err error) error {
	st := toStatus(err)
	if c := status.Code(st); c == codes.Internal || c == codes.Unavailable {
		s.logger.Error(ctx, "request failed", "error", err)
	}
	return st
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.UserResponse, error) {
	user, err := s.users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.UserResponse{User: userToAPI(user)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	ctx = ratelimit.WithClient(ctx, peerHost(ctx))
	session, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.LoginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, UserID: session.UserID}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *api.VerifyEmailRequest) (*api.UserResponse, error) {
	user, err := s.users.VerifyEmail(ctx, req.Token)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.UserResponse{User: userToAPI(user)}, nil
}

func (s *GRPCServer) ResendVerification(ctx context.Context, req *api.ResendVerificationRequest) (*api.Empty, error) {
	if err := s.users.ResendVerification(ctx, req.Email); err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *api.Empty) (*api.UserResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.UserResponse{User: userToAPI(user)}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.UserResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, id, req.Username, req.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.UserResponse{User: userToAPI(user)}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *api.Empty) (*api.UserResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Delete(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &api.UserResponse{User: userToAPI(user)}, nil
}

func (s *GRPCServer) CreateTask(ctx context.Context, req *api.CreateTaskRequest) (*api.TaskResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	in, err := taskInput(req.Title, req.Description, req.Priority, req.DueDate)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	task, err := s.tasks.Create(ctx, id, in)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.taskResponse(ctx, task)
}

func (s *GRPCServer) GetTask(ctx context.Context, req *api.TaskIDRequest) (*api.TaskResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.Get(ctx, id, req.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.taskResponse(ctx, task)
}

// UpdateTask honours IfMatch by comparing it with the ETag of the current task.
func (s *GRPCServer) UpdateTask(ctx context.Context, req *api.UpdateTaskRequest) (*api.TaskResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	in, err := taskInput(req.Title, req.Description, req.Priority, req.DueDate)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	if req.IfMatch != "" {
		current, err := s.tasks.Get(ctx, id, req.ID)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		resp, err := taskResponse(current)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		if resp.ETag != req.IfMatch {
			return nil, s.fail(ctx, common.ErrPreconditionFailed)
		}
	}

	task, err := s.tasks.Update(ctx, id, req.ID, in, req.IsCompleted)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.taskResponse(ctx, task)
}

func (s *GRPCServer) CompleteTask(ctx context.Context, req *api.TaskIDRequest) (*api.TaskResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.Complete(ctx, id, req.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.taskResponse(ctx, task)
}

func (s *GRPCServer) DeleteTask(ctx context.Context, req *api.TaskIDRequest) (*api.TaskResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.Delete(ctx, id, req.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.taskResponse(ctx, task)
}

func (s *GRPCServer) ListTasks(ctx context.Context, req *api.ListTasksRequest) (*api.ListTasksResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var tasks []*models.Task
	if req.Completed == nil {
		tasks, err = s.tasks.ListAll(ctx, id)
	} else {
		tasks, err = s.tasks.ListByStatus(ctx, id, *req.Completed)
	}
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	list := make([]*api.Task, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, taskToAPI(t))
	}

	return &api.ListTasksResponse{Tasks: list}, nil
}

func (s *GRPCServer) taskResponse(ctx context.Context, t *models.Task) (*api.TaskResponse, error) {
	resp, err := taskResponse(t)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return resp, nil
}
