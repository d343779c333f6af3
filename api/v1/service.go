// Package v1 declares the eval.v1 gRPC services. Every method exchanges
// google.protobuf.Struct documents whose fields mirror the JSON bodies of
// the web application's callables.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AccessApprovalServiceName = "eval.v1.AccessApproval"
	ScoringServiceName        = "eval.v1.Scoring"
)

type unaryFunc func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(service, method string, call unaryFunc) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// AccessApprovalServer is the server API for eval.v1.AccessApproval.
type AccessApprovalServer interface {
	SetAccessApproval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestAccess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccessRequests(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAccessApprovalServer can be embedded for forward compatibility.
type UnimplementedAccessApprovalServer struct{}

func (UnimplementedAccessApprovalServer) SetAccessApproval(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SetAccessApproval")
}

func (UnimplementedAccessApprovalServer) RequestAccess(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("RequestAccess")
}

func (UnimplementedAccessApprovalServer) ListAccessRequests(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListAccessRequests")
}

var AccessApproval_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AccessApprovalServiceName,
	HandlerType: (*AccessApprovalServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AccessApprovalServiceName, "SetAccessApproval", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AccessApprovalServer).SetAccessApproval(ctx, in)
		}),
		unary(AccessApprovalServiceName, "RequestAccess", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AccessApprovalServer).RequestAccess(ctx, in)
		}),
		unary(AccessApprovalServiceName, "ListAccessRequests", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AccessApprovalServer).ListAccessRequests(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eval/v1/access_approval",
}

func RegisterAccessApprovalServer(s grpc.ServiceRegistrar, srv AccessApprovalServer) {
	s.RegisterService(&AccessApproval_ServiceDesc, srv)
}

// AccessApprovalClient is the client API for eval.v1.AccessApproval.
type AccessApprovalClient struct {
	cc grpc.ClientConnInterface
}

func NewAccessApprovalClient(cc grpc.ClientConnInterface) *AccessApprovalClient {
	return &AccessApprovalClient{cc: cc}
}

func (c *AccessApprovalClient) SetAccessApproval(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AccessApprovalServiceName, "SetAccessApproval", in, opts...)
}

func (c *AccessApprovalClient) RequestAccess(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AccessApprovalServiceName, "RequestAccess", in, opts...)
}

func (c *AccessApprovalClient) ListAccessRequests(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AccessApprovalServiceName, "ListAccessRequests", in, opts...)
}

// ScoringServer is the server API for eval.v1.Scoring.
type ScoringServer interface {
	ComputeTotalScore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateScoringPreset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReapplyTemplateScoring(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteItemScoring(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAnswers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvaluationResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedScoringServer can be embedded for forward compatibility.
type UnimplementedScoringServer struct{}

func (UnimplementedScoringServer) ComputeTotalScore(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ComputeTotalScore")
}

func (UnimplementedScoringServer) GenerateScoringPreset(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GenerateScoringPreset")
}

func (UnimplementedScoringServer) SaveTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SaveTemplate")
}

func (UnimplementedScoringServer) GetTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetTemplate")
}

func (UnimplementedScoringServer) ReapplyTemplateScoring(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ReapplyTemplateScoring")
}

func (UnimplementedScoringServer) CompleteItemScoring(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CompleteItemScoring")
}

func (UnimplementedScoringServer) CreateCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CreateCampaign")
}

func (UnimplementedScoringServer) SubmitAnswers(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SubmitAnswers")
}

func (UnimplementedScoringServer) GetEvaluationResult(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetEvaluationResult")
}

func scoringMethod(name string, pick func(ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return unary(ScoringServiceName, name, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return pick(srv.(ScoringServer))(ctx, in)
	})
}

var Scoring_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ScoringServiceName,
	HandlerType: (*ScoringServer)(nil),
	Methods: []grpc.MethodDesc{
		scoringMethod("ComputeTotalScore", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.ComputeTotalScore
		}),
		scoringMethod("GenerateScoringPreset", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.GenerateScoringPreset
		}),
		scoringMethod("SaveTemplate", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.SaveTemplate
		}),
		scoringMethod("GetTemplate", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.GetTemplate
		}),
		scoringMethod("ReapplyTemplateScoring", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.ReapplyTemplateScoring
		}),
		scoringMethod("CompleteItemScoring", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.CompleteItemScoring
		}),
		scoringMethod("CreateCampaign", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.CreateCampaign
		}),
		scoringMethod("SubmitAnswers", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.SubmitAnswers
		}),
		scoringMethod("GetEvaluationResult", func(s ScoringServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
			return s.GetEvaluationResult
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eval/v1/scoring",
}

func RegisterScoringServer(s grpc.ServiceRegistrar, srv ScoringServer) {
	s.RegisterService(&Scoring_ServiceDesc, srv)
}

// ScoringClient is the client API for eval.v1.Scoring.
type ScoringClient struct {
	cc grpc.ClientConnInterface
}

func NewScoringClient(cc grpc.ClientConnInterface) *ScoringClient {
	return &ScoringClient{cc: cc}
}

// Call invokes any eval.v1.Scoring method by name.
func (c *ScoringClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ScoringServiceName, method, in, opts...)
}
