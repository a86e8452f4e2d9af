// Package viewrpc is the gRPC contract for dashboard summaries: one actor's
// appointments filtered to a view plus the counts of every view. Messages
// travel with the grpcx JSON codec.
package viewrpc

import (
	"context"

	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/grpcx"
	"google.golang.org/grpc"
)

const (
	ServiceName   = "appointmed.views.v1.ViewService"
	summaryMethod = "/" + ServiceName + "/Summary"
)

type SummaryRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	View    string `json:"view"`
}

type SummaryResponse struct {
	View         appointments.View          `json:"view"`
	Appointments []appointments.Appointment `json:"appointments"`
	Counts       appointments.Counts        `json:"counts"`
}

type ViewServer interface {
	Summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error)
}

func RegisterViewServer(s grpc.ServiceRegistrar, srv ViewServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ViewServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Summary", Handler: summaryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "viewrpc",
}

func summaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewServer).Summary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: summaryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ViewServer).Summary(ctx, req.(*SummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Summary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	out := new(SummaryResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, summaryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
