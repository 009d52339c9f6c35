package grpc

import (
	"errors"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error onto a gRPC status. Messages of expected
// failures are passed through; anything else becomes "internal error".
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, common.ErrorConflict.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	case errors.Is(err, common.ErrEmailNotVerified):
		return status.Error(codes.PermissionDenied, common.ErrEmailNotVerified.Error())
	case errors.Is(err, common.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, common.ErrTooManyAttempts.Error())
	case errors.Is(err, common.ErrPreconditionFailed):
		return status.Error(codes.FailedPrecondition, common.ErrPreconditionFailed.Error())
	case errors.Is(err, common.ErrorStoreUnavailable):
		return status.Error(codes.Unavailable, common.ErrorStoreUnavailable.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
