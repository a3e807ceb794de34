package rpc

import (
	"context"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewServer returns a *grpc.Server instrumented with
// go-grpc-prometheus's request/latency interceptors, matching the
// teacher's own use of the library across go/runtime. Call
// grpc_prometheus.Register(server) once it's done accepting
// registrations and before Serve, to register the collectors.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	allOpts := append([]grpc.ServerOption{
		grpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}, opts...)
	return grpc.NewServer(allOpts...)
}

// Dial connects to a ControlPlane server at address, negotiating the
// JSON codec and instrumenting every call with go-grpc-prometheus
// client metrics. It blocks until the connection is ready or ctx is
// done, matching the teacher's own grpc.DialContext(..., WithBlock())
// pattern for its connector-proxy sockets.
func Dial(ctx context.Context, address string) (*grpc.ClientConn, error) {
	conn, err := grpc.DialContext(ctx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
		grpc.WithUnaryInterceptor(grpc_prometheus.UnaryClientInterceptor),
		grpc.WithStreamInterceptor(grpc_prometheus.StreamClientInterceptor),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing control plane at %v", address)
	}
	return conn, nil
}
