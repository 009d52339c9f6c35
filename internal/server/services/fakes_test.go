package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/dbx"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/config"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskmanager/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory users+tasks store with the same semantics as
// the PostgreSQL repositories.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	tasks      map[int64]*models.Task
	nextUser   int64
	nextTask   int64
	err        error // returned by every call when set
	deleteErr  error // returned by user Delete when set
	deleteCall int
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*models.User{}, tasks: map[int64]*models.Task{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.EmailVerificationToken != nil {
		tok := *u.EmailVerificationToken
		c.EmailVerificationToken = &tok
	}
	return &c
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	return &c
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	r.s.nextUser++
	u.ID = r.s.nextUser
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = cloneUser(u)
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	existing, ok := r.s.users[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	existing.Username = u.Username
	existing.PasswordHash = u.PasswordHash
	existing.UpdatedAt = time.Now()
	return cloneUser(existing), nil
}

func (r memUsers) SetVerificationToken(_ context.Context, id int64, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return r.s.err
	}
	u, ok := r.s.users[id]
	if !ok || u.IsEmailVerified {
		return common.ErrorNotFound
	}
	u.EmailVerificationToken = &token
	return nil
}

func (r memUsers) ConsumeVerificationToken(_ context.Context, token string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	for _, u := range r.s.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			u.IsEmailVerified = true
			u.EmailVerificationToken = nil
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteCall++
	if r.s.deleteErr != nil {
		return r.s.deleteErr
	}
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r memUsers) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return false, r.s.err
	}
	_, ok := r.s.users[id]
	return ok, nil
}

type memTasks struct{ s *memStore }

func (r memTasks) owned(userID, id int64) (*models.Task, bool) {
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, false
	}
	return t, true
}

func (r memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	r.s.nextTask++
	t.ID = r.s.nextTask
	r.s.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (r memTasks) GetByID(_ context.Context, userID, id int64) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneTask(t), nil
}

func (r memTasks) Update(_ context.Context, t *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.owned(t.UserID, t.ID); !ok {
		return nil, common.ErrorNotFound
	}
	r.s.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (r memTasks) Complete(_ context.Context, userID, id int64) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	t.IsCompleted = true
	return cloneTask(t), nil
}

func (r memTasks) Delete(_ context.Context, userID, id int64) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	return t, nil
}

func (r memTasks) DeleteAllByUser(_ context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tasks {
		if t.UserID == userID {
			delete(r.s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r memTasks) ListByUser(_ context.Context, userID int64, completed *bool) ([]*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Task, 0)
	for _, t := range r.s.tasks {
		if t.UserID != userID {
			continue
		}
		if completed != nil && t.IsCompleted != *completed {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) countTasks(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) tokenOf(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	if u == nil || u.EmailVerificationToken == nil {
		return ""
	}
	return *u.EmailVerificationToken
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository              { return memTasks{m.s} }

// recordingNotifier captures sent links.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  map[string]string
	err   error
	panic bool
}

func (n *recordingNotifier) SendVerificationLink(_ context.Context, to, link string) error {
	if n.panic {
		panic("mailer exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string]string{}
	}
	n.sent[to] = link
	return n.err
}

func (n *recordingNotifier) linkFor(to string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.sent[to]
	return l, ok
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:                     "https://tasks.example.com",
		SecretKey:                   "test-secret",
		JWTIssuer:                   "taskmanager",
		JWTAudience:                 "taskmanager-clients",
		JWTSubject:                  "session",
		AccessTokenValidityDuration: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
	}
}

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	users    *UserService
	auth     *AuthService
	tasks    *TaskService
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	n := &recordingNotifier{}
	cfg := testConfig()

	us := NewUserService(db, rm, cfg, n, logging.Nop{})
	as, err := NewAuthService(db, rm, cfg, nil, logging.Nop{})
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}
	ts := NewTaskService(db, rm, us, logging.Nop{})

	return &fixture{store: store, notifier: n, users: us, auth: as, tasks: ts, mock: mock}
}

// register creates a user and waits for the verification mail.
func (f *fixture) register(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	f.users.Wait()
	return u
}

// verified registers and verifies a user.
func (f *fixture) verified(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	u := f.register(t, username, email, password)
	if _, err := f.users.VerifyEmail(context.Background(), f.store.tokenOf(u.ID)); err != nil {
		t.Fatalf("VerifyEmail error: %v", err)
	}
	return u
}
