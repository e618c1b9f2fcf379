package grpc_control

import (
	"context"

	"market-simulator/src/config"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "simulator.v1.SimulatorControl"

	// PanelDashboard returns every panel in one Struct
	PanelDashboard = "dashboard"
)

// PanelSource serves live snapshots (implemented by simulator.Runner)
type PanelSource interface {
	Panel(channel string) (interface{}, bool)
	Dashboard() models.MDashboardState
}

// PollerControl exposes the stats state machine (implemented by netstats.Poller)
type PollerControl interface {
	Status() models.MPollerStatus
	SetDemoRecovery(enabled bool)
}

// SimulatorControlServer is the server API of simulator.v1.SimulatorControl
type SimulatorControlServer interface {
	GetSnapshot(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetPollerStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetDemoRecovery(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error)
}

// -----------------------------------------------------------------------------

// ControlService implements the SimulatorControlServer interface
type ControlService struct {
	Config     *config.Config
	ConfigPath string
	Logger     *logger.Logger
	Panels     PanelSource
	Poller     PollerControl
}

// NewControlService creates a new instance of ControlService. poller may be
// nil when the stats panel is disabled; cfgPath empty skips persistence.
func NewControlService(cfg *config.Config, cfgPath string, log *logger.Logger, panels PanelSource, poller PollerControl) *ControlService {
	return &ControlService{
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     log,
		Panels:     panels,
		Poller:     poller,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetSnapshot(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	panel := req.GetValue()
	if panel == "" {
		return nil, status.Error(codes.InvalidArgument, "panel is required")
	}

	var payload interface{}
	if panel == PanelDashboard {
		payload = s.Panels.Dashboard()
	} else {
		known := false
		for _, ch := range models.AllChannels {
			if ch == panel {
				known = true
				break
			}
		}
		if !known {
			return nil, status.Errorf(codes.InvalidArgument, "unknown panel %q", panel)
		}

		var ok bool
		if payload, ok = s.Panels.Panel(panel); !ok {
			return nil, status.Errorf(codes.Unavailable, "%s not available yet", panel)
		}
	}

	out, err := toStruct(payload)
	if err != nil {
		s.Logger.Error("gRPC: failed to encode %s snapshot: %v", panel, err)
		return nil, status.Errorf(codes.Internal, "encode %s: %v", panel, err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetPollerStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	if s.Poller == nil {
		return nil, status.Error(codes.FailedPrecondition, "stats poller is not running")
	}

	out, err := toStruct(s.Poller.Status())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode poller status: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// SetDemoRecovery toggles DEMO recovery retries at runtime and persists the choice
func (s *ControlService) SetDemoRecovery(ctx context.Context, req *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	if s.Poller == nil {
		return nil, status.Error(codes.FailedPrecondition, "stats poller is not running")
	}

	enabled := req.GetValue()
	s.Poller.SetDemoRecovery(enabled)
	s.Logger.Info("gRPC: demo recovery set to %v", enabled)

	if s.ConfigPath != "" && s.Config != nil {
		// Write a copy; the live config stays read-only for the HTTP side
		snapshot := *s.Config.MConfig
		snapshot.Simulator.Stats.DemoRecovery = enabled
		persisted := &config.Config{MConfig: &snapshot}
		if err := persisted.Save(s.ConfigPath); err != nil {
			s.Logger.Warning("gRPC: failed to persist demo recovery: %v", err)
		}
	}

	return &emptypb.Empty{}, nil
}

// -----------------------------------------------------------------------------
// Wire helpers
// -----------------------------------------------------------------------------

// toStruct converts any JSON-tagged model into a protobuf Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// -----------------------------------------------------------------------------
// Service descriptor (no codegen: the messages are protobuf well-known types)
// -----------------------------------------------------------------------------

func RegisterSimulatorControlServer(s grpc.ServiceRegistrar, srv SimulatorControlServer) {
	s.RegisterService(&SimulatorControl_ServiceDesc, srv)
}

var SimulatorControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSnapshot", Handler: getSnapshotHandler},
		{MethodName: "GetPollerStatus", Handler: getPollerStatusHandler},
		{MethodName: "SetDemoRecovery", Handler: setDemoRecoveryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "simulator/v1/control.proto",
}

// -----------------------------------------------------------------------------

func getSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorControlServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetSnapshot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SimulatorControlServer).GetSnapshot(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getPollerStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorControlServer).GetPollerStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetPollerStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SimulatorControlServer).GetPollerStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func setDemoRecoveryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorControlServer).SetDemoRecovery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SetDemoRecovery"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SimulatorControlServer).SetDemoRecovery(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}
