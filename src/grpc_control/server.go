package grpc_control

import (
	"fmt"
	"net"
	"time"

	"market-simulator/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ControlServer hosts the control service next to the standard health service
type ControlServer struct {
	Logger *logger.Logger
	grpc   *grpc.Server
	health *health.Server
}

// -----------------------------------------------------------------------------

func NewControlServer(log *logger.Logger, service SimulatorControlServer) *ControlServer {
	s := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			MaxConnectionAge:  30 * time.Minute,
			Time:              20 * time.Second,
			Timeout:           10 * time.Second,
		}),
	)

	RegisterSimulatorControlServer(s, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &ControlServer{Logger: log, grpc: s, health: healthServer}
}

// -----------------------------------------------------------------------------

// ListenAndServe blocks until Stop is called
func (c *ControlServer) ListenAndServe(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	c.Logger.Info("Starting gRPC control server on %s", addr)
	return c.Serve(lis)
}

// -----------------------------------------------------------------------------

func (c *ControlServer) Serve(lis net.Listener) error {
	if err := c.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc server failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *ControlServer) Stop() {
	c.health.Shutdown()
	c.grpc.GracefulStop()
	c.Logger.Info("gRPC control server stopped")
}
