package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "coreflow.rpc.ControlPlane"

// ControlPlaneServer is the serving side of the control-plane service.
// AssignTasks, InjectBarrier and Terminate carry coordinator-to-worker
// requests; AckCheckpoint and ReportStatus carry worker-to-coordinator
// reports.
type ControlPlaneServer interface {
	AssignTasks(context.Context, *AssignTasksRequest) (*AssignTasksResponse, error)
	InjectBarrier(context.Context, *InjectBarrierRequest) (*InjectBarrierResponse, error)
	AckCheckpoint(context.Context, *AckCheckpointRequest) (*AckCheckpointResponse, error)
	ReportStatus(context.Context, *ReportStatusRequest) (*ReportStatusResponse, error)
	Terminate(context.Context, *TerminateRequest) (*TerminateResponse, error)
}

// ControlPlaneClient is the calling side of the same service.
type ControlPlaneClient interface {
	AssignTasks(ctx context.Context, in *AssignTasksRequest, opts ...grpc.CallOption) (*AssignTasksResponse, error)
	InjectBarrier(ctx context.Context, in *InjectBarrierRequest, opts ...grpc.CallOption) (*InjectBarrierResponse, error)
	AckCheckpoint(ctx context.Context, in *AckCheckpointRequest, opts ...grpc.CallOption) (*AckCheckpointResponse, error)
	ReportStatus(ctx context.Context, in *ReportStatusRequest, opts ...grpc.CallOption) (*ReportStatusResponse, error)
	Terminate(ctx context.Context, in *TerminateRequest, opts ...grpc.CallOption) (*TerminateResponse, error)
}

type controlPlaneClient struct {
	cc *grpc.ClientConn
}

// NewControlPlaneClient wraps an established connection (see Dial) as
// a ControlPlaneClient.
func NewControlPlaneClient(cc *grpc.ClientConn) ControlPlaneClient {
	return &controlPlaneClient{cc: cc}
}

func (c *controlPlaneClient) AssignTasks(ctx context.Context, in *AssignTasksRequest, opts ...grpc.CallOption) (*AssignTasksResponse, error) {
	out := new(AssignTasksResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AssignTasks", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) InjectBarrier(ctx context.Context, in *InjectBarrierRequest, opts ...grpc.CallOption) (*InjectBarrierResponse, error) {
	out := new(InjectBarrierResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/InjectBarrier", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) AckCheckpoint(ctx context.Context, in *AckCheckpointRequest, opts ...grpc.CallOption) (*AckCheckpointResponse, error) {
	out := new(AckCheckpointResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AckCheckpoint", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) ReportStatus(ctx context.Context, in *ReportStatusRequest, opts ...grpc.CallOption) (*ReportStatusResponse, error) {
	out := new(ReportStatusResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ReportStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlPlaneClient) Terminate(ctx context.Context, in *TerminateRequest, opts ...grpc.CallOption) (*TerminateResponse, error) {
	out := new(TerminateResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Terminate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ControlPlane_AssignTasks_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AssignTasksRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).AssignTasks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AssignTasks"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).AssignTasks(ctx, req.(*AssignTasksRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_InjectBarrier_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InjectBarrierRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).InjectBarrier(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/InjectBarrier"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).InjectBarrier(ctx, req.(*InjectBarrierRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_AckCheckpoint_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AckCheckpointRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).AckCheckpoint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AckCheckpoint"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).AckCheckpoint(ctx, req.(*AckCheckpointRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_ReportStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReportStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).ReportStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ReportStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).ReportStatus(ctx, req.(*ReportStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlPlane_Terminate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TerminateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServer).Terminate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Terminate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServer).Terminate(ctx, req.(*TerminateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlPlane_ServiceDesc is the hand-written equivalent of a
// protoc-generated grpc.ServiceDesc.
var ControlPlane_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ControlPlaneServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AssignTasks", Handler: _ControlPlane_AssignTasks_Handler},
		{MethodName: "InjectBarrier", Handler: _ControlPlane_InjectBarrier_Handler},
		{MethodName: "AckCheckpoint", Handler: _ControlPlane_AckCheckpoint_Handler},
		{MethodName: "ReportStatus", Handler: _ControlPlane_ReportStatus_Handler},
		{MethodName: "Terminate", Handler: _ControlPlane_Terminate_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpc/control_plane.go",
}

// RegisterControlPlaneServer registers srv against s, the way
// protoc-gen-go-grpc's generated RegisterXServer would.
func RegisterControlPlaneServer(s grpc.ServiceRegistrar, srv ControlPlaneServer) {
	s.RegisterService(&ControlPlane_ServiceDesc, srv)
}
