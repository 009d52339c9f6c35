package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "taskmanager.v1.TaskManager"

// Full method names, as seen by interceptors.
const (
	MethodRegister           = "/" + ServiceName + "/Register"
	MethodLogin              = "/" + ServiceName + "/Login"
	MethodVerifyEmail        = "/" + ServiceName + "/VerifyEmail"
	MethodResendVerification = "/" + ServiceName + "/ResendVerification"
	MethodGetProfile         = "/" + ServiceName + "/GetProfile"
	MethodUpdateProfile      = "/" + ServiceName + "/UpdateProfile"
	MethodDeleteAccount      = "/" + ServiceName + "/DeleteAccount"
	MethodCreateTask         = "/" + ServiceName + "/CreateTask"
	MethodGetTask            = "/" + ServiceName + "/GetTask"
	MethodUpdateTask         = "/" + ServiceName + "/UpdateTask"
	MethodCompleteTask       = "/" + ServiceName + "/CompleteTask"
	MethodDeleteTask         = "/" + ServiceName + "/DeleteTask"
	MethodListTasks          = "/" + ServiceName + "/ListTasks"
)

// PublicMethods need no bearer assertion.
var PublicMethods = map[string]bool{
	MethodRegister:           true,
	MethodLogin:              true,
	MethodVerifyEmail:        true,
	MethodResendVerification: true,
}

type TaskManagerServer interface {
	Register(context.Context, *RegisterRequest) (*UserResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*UserResponse, error)
	ResendVerification(context.Context, *ResendVerificationRequest) (*Empty, error)
	GetProfile(context.Context, *Empty) (*UserResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UserResponse, error)
	DeleteAccount(context.Context, *Empty) (*UserResponse, error)
	CreateTask(context.Context, *CreateTaskRequest) (*TaskResponse, error)
	GetTask(context.Context, *TaskIDRequest) (*TaskResponse, error)
	UpdateTask(context.Context, *UpdateTaskRequest) (*TaskResponse, error)
	CompleteTask(context.Context, *TaskIDRequest) (*TaskResponse, error)
	DeleteTask(context.Context, *TaskIDRequest) (*TaskResponse, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
}

func unary[Req, Resp any](name string, call func(TaskManagerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaskManagerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TaskManagerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", TaskManagerServer.Register),
		unary("Login", TaskManagerServer.Login),
		unary("VerifyEmail", TaskManagerServer.VerifyEmail),
		unary("ResendVerification", TaskManagerServer.ResendVerification),
		unary("GetProfile", TaskManagerServer.GetProfile),
		unary("UpdateProfile", TaskManagerServer.UpdateProfile),
		unary("DeleteAccount", TaskManagerServer.DeleteAccount),
		unary("CreateTask", TaskManagerServer.CreateTask),
		unary("GetTask", TaskManagerServer.GetTask),
		unary("UpdateTask", TaskManagerServer.UpdateTask),
		unary("CompleteTask", TaskManagerServer.CompleteTask),
		unary("DeleteTask", TaskManagerServer.DeleteTask),
		unary("ListTasks", TaskManagerServer.ListTasks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskmanager/v1/taskmanager",
}

func RegisterTaskManagerServer(s grpc.ServiceRegistrar, srv TaskManagerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
