package grpc

import (
	"context"

	v1 "github.com/godilite/eval-server/api/v1"
	"github.com/godilite/eval-server/internal/approval"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

// ApprovalHandlers serves eval.v1.AccessApproval.
type ApprovalHandlers struct {
	v1.UnimplementedAccessApprovalServer
	approver Approver
	logger   *zap.Logger
}

func NewApprovalHandlers(approver Approver, logger *zap.Logger) *ApprovalHandlers {
	if approver == nil {
		panic("nil Approver provided to NewApprovalHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalHandlers{
		approver: approver,
		logger:   logger.Named("grpc-approval"),
	}
}

// SetAccessApproval checks the caller before the body is decoded so that
// identity failures always win over malformed input.
func (h *ApprovalHandlers) SetAccessApproval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller := callerFrom(ctx)
	if err := approval.CheckApprover(caller); err != nil {
		return nil, handleError(ctx, h.logger, "SetAccessApproval", err)
	}

	var in approval.Input
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "SetAccessApproval", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	out, err := h.approver.Decide(ctx, caller, in)
	if err != nil {
		return nil, handleError(ctx, h.logger, "SetAccessApproval", err)
	}
	return ok(map[string]any{"status": string(out.Status)})
}

func (h *ApprovalHandlers) RequestAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller := callerFrom(ctx)
	if err := approval.CheckAuthenticated(caller); err != nil {
		return nil, handleError(ctx, h.logger, "RequestAccess", err)
	}

	var f approval.Filing
	if err := v1.Decode(req, &f); err != nil {
		return nil, handleError(ctx, h.logger, "RequestAccess", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	saved, err := h.approver.RequestAccess(ctx, caller, f)
	if err != nil {
		return nil, handleError(ctx, h.logger, "RequestAccess", err)
	}
	return ok(map[string]any{"status": string(saved.Status)})
}

type listRequestsRequest struct {
	Status string `json:"status,omitempty"`
}

type listRequestsResponse struct {
	Requests []approval.AccessRequest `json:"requests"`
}

func (h *ApprovalHandlers) ListAccessRequests(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller := callerFrom(ctx)
	if err := approval.CheckApprover(caller); err != nil {
		return nil, handleError(ctx, h.logger, "ListAccessRequests", err)
	}

	var in listRequestsRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "ListAccessRequests", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	reqs, err := h.approver.ListRequests(ctx, caller, approval.Status(in.Status))
	if err != nil {
		return nil, handleError(ctx, h.logger, "ListAccessRequests", err)
	}
	if reqs == nil {
		reqs = []approval.AccessRequest{}
	}
	return v1.Encode(listRequestsResponse{Requests: reqs})
}
