// Package server wires the store, mail transport, login limiter and services
// together and runs the gRPC and HTTP servers until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/dmitrijs2005/taskmanager/internal/server/httpapi"
	"github.com/dmitrijs2005/taskmanager/internal/server/mailer"
	"github.com/dmitrijs2005/taskmanager/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskmanager/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/taskmanager/internal/server/grpc"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	startupTimeout = 10 * time.Second
	redisTimeout   = 3 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	userService *services.UserService
	authService *services.AuthService
	taskService *services.TaskService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	sender, err := newEmailSender(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	limiter := ratelimit.Limiter(ratelimit.Noop{})
	if c.RedisURL != "" {
		client, err := ratelimit.Connect(ctx, c.RedisURL, redisTimeout)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		limiter = ratelimit.NewRedisLimiter(client, ratelimit.Settings{
			MaxAttempts: c.LoginMaxAttempts,
			Window:      c.LoginAttemptWindow,
		})
	} else {
		logger.Warn(ctx, "redis is not configured, login attempts are not throttled")
	}

	app.userService = services.NewUserService(db, rm, c, mailer.NewVerificationMailer(sender), logger)
	app.taskService = services.NewTaskService(db, rm, app.userService, logger)
	app.authService, err = services.NewAuthService(db, rm, c, limiter, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

// newEmailSender picks Postmark when a server token is configured and
// falls back to writing mails into MailDir.
func newEmailSender(c *config.Config) (mailer.EmailSender, error) {
	if c.PostmarkServerToken == "" {
		return mailer.NewDevSender(c.MailDir), nil
	}
	s, err := mailer.NewPostmarkSender(mailer.PostmarkSettings{
		ServerToken:  c.PostmarkServerToken,
		AccountToken: c.PostmarkAccountToken,
		SenderEmail:  c.SenderEmail,
		SupportEmail: c.SupportEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	return s, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.authService, app.taskService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	checks := []httpapi.Check{app.db.PingContext}
	if app.redis != nil {
		checks = append(checks, ratelimit.Healthcheck(app.redis))
	}

	router := httpapi.NewRouter(app.userService, app.logger, checks...)
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a server fails, then waits for
// pending verification mails and releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.userService.Wait()
	app.close()
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close() {
	ctx := context.Background()
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
