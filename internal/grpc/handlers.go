package grpc

import (
	"context"
	"errors"

	v1 "github.com/godilite/eval-server/api/v1"
	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	"github.com/godilite/eval-server/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func callerFrom(ctx context.Context) *approval.Caller {
	c, _ := approval.CallerFrom(ctx)
	return c
}

func ok(fields map[string]any) (*structpb.Struct, error) {
	out := map[string]any{"ok": true}
	for k, v := range fields {
		out[k] = v
	}
	return v1.Encode(out)
}

// handleError maps domain errors onto gRPC status codes. Messages for client
// errors are passed through; storage details stay in the log.
func handleError(ctx context.Context, logger *zap.Logger, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	var denied *approval.DeniedError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("storage timeout", zap.String("op", op), zap.Error(err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, approval.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.As(err, &denied):
		logger.Info("permission denied", zap.String("op", op), zap.String("reason", string(denied.Reason)))
		return status.Error(codes.PermissionDenied, string(denied.Reason))
	case errors.Is(err, approval.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, scoring.ErrInvalidItem),
		errors.Is(err, scoring.ErrUnknownScale),
		errors.Is(err, scoring.ErrUnknownItemType),
		errors.Is(err, v1.ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, approval.ErrNotFound), errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrNoAnswers):
		return status.Error(codes.NotFound, "no answers submitted for this evaluatee")
	case errors.Is(err, models.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, approval.ErrAlreadyApproved):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, approval.ErrIncomplete):
		logger.Error("decision partially applied", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "decision partially applied; retry to complete")
	case errors.Is(err, service.ErrStorageFailure):
		logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}
