// Package grpc serves the taskmanager.v1.TaskManager API over gRPC and
// maps service errors onto status codes.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/api"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type userService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, username, password *string) (*models.User, error)
	Delete(ctx context.Context, userID int64) (*models.User, error)
}

type authService interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	ResolveCaller(ctx context.Context, assertion string) (int64, error)
}

type taskService interface {
	Create(ctx context.Context, ownerID int64, in services.TaskInput) (*models.Task, error)
	Get(ctx context.Context, ownerID, taskID int64) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID int64, in services.TaskInput, isCompleted bool) (*models.Task, error)
	Complete(ctx context.Context, ownerID, taskID int64) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID int64) (*models.Task, error)
	ListAll(ctx context.Context, ownerID int64) ([]*models.Task, error)
	ListByStatus(ctx context.Context, ownerID int64, isCompleted bool) ([]*models.Task, error)
}

type GRPCServer struct {
	address string
	users   userService
	auth    authService
	tasks   taskService
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, us userService, as authService, ts taskService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		auth:    as,
		tasks:   ts,
		health:  health.NewServer(),
	}
}

// newGRPC builds the grpc.Server with interceptors and services registered.
func (s *GRPCServer) newGRPC() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))

	api.RegisterTaskManagerServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newGRPC()

	// the stopper also runs when Serve fails on its own
	ctx, cancel := context.WithCancel(ctx)
	stopperDone := make(chan struct{})
	defer func() {
		cancel()
		<-stopperDone
	}()

	go func() {
		defer close(stopperDone)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(10 * time.Second):
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
