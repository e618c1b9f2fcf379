package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SimulatorControlClient is the client API of simulator.v1.SimulatorControl
type SimulatorControlClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulatorControlClient(cc grpc.ClientConnInterface) *SimulatorControlClient {
	return &SimulatorControlClient{cc: cc}
}

func (c *SimulatorControlClient) GetSnapshot(ctx context.Context, panel string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetSnapshot", wrapperspb.String(panel), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulatorControlClient) GetPollerStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetPollerStatus", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulatorControlClient) SetDemoRecovery(ctx context.Context, enabled bool, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/SetDemoRecovery", wrapperspb.Bool(enabled), &emptypb.Empty{}, opts...)
}
