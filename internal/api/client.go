package api

import (
	"context"

	"google.golang.org/grpc"
)

// TaskManagerClient calls the service with the JSON codec.
type TaskManagerClient struct {
	cc grpc.ClientConnInterface
}

func NewTaskManagerClient(cc grpc.ClientConnInterface) *TaskManagerClient {
	return &TaskManagerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TaskManagerClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *TaskManagerClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *TaskManagerClient) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodVerifyEmail, in, opts)
}

func (c *TaskManagerClient) ResendVerification(ctx context.Context, in *ResendVerificationRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodResendVerification, in, opts)
}

func (c *TaskManagerClient) GetProfile(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodGetProfile, in, opts)
}

func (c *TaskManagerClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodUpdateProfile, in, opts)
}

func (c *TaskManagerClient) DeleteAccount(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodDeleteAccount, in, opts)
}

func (c *TaskManagerClient) CreateTask(ctx context.Context, in *CreateTaskRequest, opts ...grpc.CallOption) (*TaskResponse, error) {
	return invoke[TaskResponse](ctx, c.cc, MethodCreateTask, in, opts)
}

func (c *TaskManagerClient) GetTask(ctx context.Context, in *TaskIDRequest, opts ...grpc.CallOption) (*TaskResponse, error) {
	return invoke[TaskResponse](ctx, c.cc, MethodGetTask, in, opts)
}

func (c *TaskManagerClient) UpdateTask(ctx context.Context, in *UpdateTaskRequest, opts ...grpc.CallOption) (*TaskResponse, error) {
	return invoke[TaskResponse](ctx, c.cc, MethodUpdateTask, in, opts)
}

func (c *TaskManagerClient) CompleteTask(ctx context.Context, in *TaskIDRequest, opts ...grpc.CallOption) (*TaskResponse, error) {
	return invoke[TaskResponse](ctx, c.cc, MethodCompleteTask, in, opts)
}

func (c *TaskManagerClient) DeleteTask(ctx context.Context, in *TaskIDRequest, opts ...grpc.CallOption) (*TaskResponse, error) {
	return invoke[TaskResponse](ctx, c.cc, MethodDeleteTask, in, opts)
}

func (c *TaskManagerClient) ListTasks(ctx context.Context, in *ListTasksRequest, opts ...grpc.CallOption) (*ListTasksResponse, error) {
	return invoke[ListTasksResponse](ctx, c.cc, MethodListTasks, in, opts)
}
