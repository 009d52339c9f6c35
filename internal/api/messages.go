// Package api declares the taskmanager.v1.TaskManager gRPC service: its
// request and response messages, the service descriptor, a client and the
// JSON codec the messages travel in.
package api

import "time"

type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Task.Priority is one of "low", "medium", "high".
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"due_date"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Empty struct{}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	User *User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// UpdateProfileRequest leaves fields that are nil unchanged. A blank
// password is ignored.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"due_date"`
}

type TaskIDRequest struct {
	ID int64 `json:"id"`
}

// UpdateTaskRequest replaces every editable field. When IfMatch is set it
// must equal the current ETag of the task.
type UpdateTaskRequest struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"due_date"`
	IsCompleted bool      `json:"is_completed"`
	IfMatch     string    `json:"if_match,omitempty"`
}

type TaskResponse struct {
	Task *Task  `json:"task"`
	ETag string `json:"etag"`
}

// ListTasksRequest filters by completion when Completed is set.
type ListTasksRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}
