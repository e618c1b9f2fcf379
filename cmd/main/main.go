package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-simulator/src/config"
	"market-simulator/src/logger"
	"market-simulator/src/server"
	"market-simulator/src/simulator"

	"github.com/jonboulle/clockwork"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	logger.SetLevel(conf.LogLevel)
	appLogger := logger.NewLogger(conf.Name)

	// 4. Setup Components
	clock := clockwork.NewRealClock()
	archive := setupArchive(conf, appLogger)
	if archive != nil {
		defer archive.Close()
	}

	poller := setupPoller(conf, clock)
	srv := server.NewDashboardServer(conf.MConfig, logger.NewLogger("DashboardServer"), poller)
	runner := simulator.NewRunner(conf.MConfig, clock, poller, srv, archive)
	control := setupControl(conf, *configPath, runner, poller)

	// 5. Start Servers
	startServers(srv, control, conf, appLogger)

	// 6. Start Simulators
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		appLogger.Critical("Failed to start simulators: %v", err)
	}
	appLogger.Info("Dashboard backend running on http://%s:%d", conf.Host, conf.Port)

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	runner.Stop()
	if control != nil {
		control.Stop()
	}
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server shutdown: %v", err)
	}
}
