package grpc

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskmanager/internal/server/services"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// ---- fakes ----

type fakeUsers struct {
	user *models.User
	err  error

	gotUsername *string
	gotPassword *string
	resentTo    string
}

func (f *fakeUsers) Register(_ context.Context, username, email, _ string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 1, Username: username, Email: email, CreatedAt: testNow, UpdatedAt: testNow}, nil
}

func (f *fakeUsers) ResendVerification(_ context.Context, email string) error {
	f.resentTo = email
	return f.err
}

func (f *fakeUsers) VerifyEmail(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != "good" {
		return nil, common.ErrInvalidToken
	}
	return f.user, nil
}

func (f *fakeUsers) FindByID(_ context.Context, userID int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || f.user.ID != userID {
		return nil, common.ErrorNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID int64, username, password *string) (*models.User, error) {
	f.gotUsername, f.gotPassword = username, password
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	if username != nil {
		u.Username = *username
	}
	return &u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, userID int64) (*models.User, error) {
	return f.FindByID(ctx, userID)
}

type fakeAuth struct {
	session *services.Session
	err     error

	// tokens maps accepted assertions to user ids.
	tokens map[string]int64

	limiterKey string
}

func (f *fakeAuth) Login(ctx context.Context, email, _ string) (*services.Session, error) {
	f.limiterKey = ratelimit.Key(ctx, email)
	return f.session, f.err
}

func (f *fakeAuth) ResolveCaller(_ context.Context, assertion string) (int64, error) {
	id, ok := f.tokens[assertion]
	if !ok {
		return 0, common.ErrorUnauthorized
	}
	return id, nil
}

type fakeTasks struct {
	err    error
	nextID int64
	tasks  map[int64]*models.Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[int64]*models.Task{}}
}

func (f *fakeTasks) owned(ownerID, taskID int64) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTasks) Create(_ context.Context, ownerID int64, in services.TaskInput) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	t := &models.Task{
		ID: f.nextID, UserID: ownerID, Title: in.Title, Description: in.Description,
		Priority: in.Priority, DueDate: in.DueDate, CreatedAt: testNow, UpdatedAt: testNow,
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTasks) Get(_ context.Context, ownerID, taskID int64) (*models.Task, error) {
	return f.owned(ownerID, taskID)
}

func (f *fakeTasks) Update(_ context.Context, ownerID, taskID int64, in services.TaskInput, isCompleted bool) (*models.Task, error) {
	t, err := f.owned(ownerID, taskID)
	if err != nil {
		return nil, err
	}
	t.Title, t.Description, t.Priority, t.DueDate, t.IsCompleted = in.Title, in.Description, in.Priority, in.DueDate, isCompleted
	t.UpdatedAt = t.UpdatedAt.Add(time.Second)
	return t, nil
}

func (f *fakeTasks) Complete(_ context.Context, ownerID, taskID int64) (*models.Task, error) {
	t, err := f.owned(ownerID, taskID)
	if err != nil {
		return nil, err
	}
	t.IsCompleted = true
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, ownerID, taskID int64) (*models.Task, error) {
	t, err := f.owned(ownerID, taskID)
	if err != nil {
		return nil, err
	}
	delete(f.tasks, taskID)
	return t, nil
}

func (f *fakeTasks) list(ownerID int64, completed *bool) ([]*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Task
	for _, t := range f.tasks {
		if t.UserID != ownerID || (completed != nil && t.IsCompleted != *completed) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTasks) ListAll(_ context.Context, ownerID int64) ([]*models.Task, error) {
	return f.list(ownerID, nil)
}

func (f *fakeTasks) ListByStatus(_ context.Context, ownerID int64, isCompleted bool) ([]*models.Task, error) {
	return f.list(ownerID, &isCompleted)
}

// ---- helpers ----

func newTestServer(u *fakeUsers, a *fakeAuth, ts *fakeTasks) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, u, a, ts)
}

func asCaller(id int64) context.Context {
	return context.WithValue(context.Background(), callerIDKey, id)
}
