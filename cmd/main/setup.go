package main

import (
	"math/rand"

	"market-simulator/src/config"
	"market-simulator/src/grpc_control"
	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/network"
	netstats "market-simulator/src/network_stats"
	"market-simulator/src/server"
	"market-simulator/src/simulator"
	"market-simulator/src/storage"

	"github.com/jonboulle/clockwork"
)

// -----------------------------------------------------------------------------

func setupArchive(conf *config.Config, appLogger *logger.Logger) interfaces.IArchive {
	archive, err := storage.NewArchive(conf.MConfig)
	if err != nil {
		// The dashboard works without history
		appLogger.Error("Archive disabled: %v", err)
		return nil
	}
	if archive != nil {
		appLogger.Info("Archiving candles and network stats to %s", conf.Storage.DBType)
	}
	return archive
}

// -----------------------------------------------------------------------------

func setupPoller(conf *config.Config, clock clockwork.Clock) *netstats.Poller {
	rpcClient := network.NewRPCClient(conf.MConfig, logger.NewLogger("RPCClient"))

	seed := conf.Simulator.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed + 4))

	return netstats.NewPoller(conf.Simulator.Stats, rpcClient, clock, rng, logger.NewLogger("StatsPoller"))
}

// -----------------------------------------------------------------------------

func startServers(srv *server.DashboardServer, control *grpc_control.ControlServer, conf *config.Config, appLogger *logger.Logger) {
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("HTTP server failed: %v", err)
		}
	}()

	if control == nil {
		return
	}

	go func() {
		if err := control.ListenAndServe(conf.GrpcHost, conf.GrpcPort); err != nil {
			appLogger.Critical("gRPC server failed: %v", err)
		}
	}()
}

// -----------------------------------------------------------------------------

func setupControl(conf *config.Config, configPath string, runner *simulator.Runner, poller *netstats.Poller) *grpc_control.ControlServer {
	if conf.GrpcPort == 0 {
		return nil
	}

	controlLogger := logger.NewLogger("ControlService")
	service := grpc_control.NewControlService(conf, configPath, controlLogger, runner, poller)
	return grpc_control.NewControlServer(controlLogger, service)
}
