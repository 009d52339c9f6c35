package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskmanager/internal/api"
	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const callerIDKey ctxKey = "callerID"

// callerID returns the user id placed in ctx by authInterceptor.
func callerID(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(callerIDKey).(int64)
	if !ok || id <= 0 {
		return 0, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}

// bearerToken extracts the assertion from "authorization: Bearer <jwt>".
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) < len(common.BearerPrefix) || !strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(common.BearerPrefix):])
}

// peerHost is the remote IP of the call without its port, or "" when the
// transport does not report one.
func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// authInterceptor resolves the caller of every protected method. Only
// methods of the task manager service are gated; health checks pass.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !strings.HasPrefix(info.FullMethod, "/"+api.ServiceName+"/") || api.PublicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := s.auth.ResolveCaller(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, callerIDKey, id)
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	ctx = logging.ContextWith(ctx, "method", info.FullMethod)
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"code", code.String(), "duration", time.Since(start)}

	switch code {
	case codes.OK:
		s.logger.Info(ctx, "rpc", args...)
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "rpc", append(args, "error", err)...)
	default:
		s.logger.Warn(ctx, "rpc", args...)
	}
	return resp, err
}
