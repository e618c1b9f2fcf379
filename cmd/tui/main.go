package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"market-simulator/src/config"
	"market-simulator/src/logger"
	"market-simulator/src/network"
	netstats "market-simulator/src/network_stats"
	"market-simulator/src/simulator"
	"market-simulator/src/ui"

	"github.com/jonboulle/clockwork"
)

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	offline := flag.Bool("offline", false, "skip the RPC poller (no stats panel)")
	logFile := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to termdash: logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger.SetLevel(conf.LogLevel)
	appLogger := logger.NewLoggerWithWriter(conf.Name, logOut)

	clock := clockwork.NewRealClock()

	var poller simulator.StatsPoller
	if !*offline {
		seed := conf.Simulator.Seed
		if seed == 0 {
			seed = clock.Now().UnixNano()
		}
		rpcClient := network.NewRPCClient(conf.MConfig, logger.NewLoggerWithWriter("RPCClient", logOut))
		poller = netstats.NewPoller(conf.Simulator.Stats, rpcClient, clock, rand.New(rand.NewSource(seed+4)), logger.NewLoggerWithWriter("StatsPoller", logOut))
	}

	dashboard := ui.NewTerminalDashboard(appLogger)
	if err := dashboard.InitWidgets(); err != nil {
		fmt.Printf("Error building dashboard: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dashboard.StartUpdateListener(ctx)

	runner := simulator.NewRunner(conf.MConfig, clock, poller, dashboard, nil)
	runner.Logger = logger.NewLoggerWithWriter("Runner", logOut)
	if err := runner.Start(ctx); err != nil {
		fmt.Printf("Error starting simulators: %v\n", err)
		os.Exit(1)
	}
	defer runner.Stop()

	if err := ui.RunDashboard(ctx, dashboard); err != nil {
		appLogger.Error("Dashboard exited: %v", err)
	}
}
