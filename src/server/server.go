package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/gin-gonic/gin"
)

var _ interfaces.IDataExchanger = (*DashboardServer)(nil)

// StatusProvider exposes the stats poller state machine to /api/health
type StatusProvider interface {
	Status() models.MPollerStatus
}

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server
	status StatusProvider

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan *models.MDashboardMessage
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	hubOnce     sync.Once
	stopOnce    sync.Once

	// Latest snapshot per channel
	latest     map[string]interface{}
	updatedAt  int64
	stateMutex sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, logger *logger.Logger, status StatusProvider) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:  cfg,
		Logger:  logger,
		engine:  gin.New(),
		status:  status,
		clients: make(map[*Client]struct{}),
		// Buffered so the simulators never wait on the hub
		broadcast:  make(chan *models.MDashboardMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latest:     make(map[string]interface{}),
	}

	// Built up front so Stop always sees it, even before Start runs
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.engine.Use(gin.Recovery(), requestIDMiddleware(), s.requestLogMiddleware(), corsMiddleware())

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// REST API endpoints
	api := s.engine.Group("/api")
	api.GET("/orderbook", s.getPanel(models.ChannelOrderBook))
	api.GET("/chart", s.getPanel(models.ChannelChart))
	api.GET("/chart/layout", s.getChartLayout)
	api.GET("/activity", s.getPanel(models.ChannelActivity))
	api.GET("/stats", s.getPanel(models.ChannelStats))
	api.GET("/dashboard", s.getDashboard)
	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler exposes the gin engine (tests, embedding)
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// StartHub launches the websocket hub loop once
func (s *DashboardServer) StartHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// -----------------------------------------------------------------------------

// Start runs the hub and blocks serving HTTP until Stop is called
func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	s.StartHub()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		// Hub exits and closes every client send channel
		close(s.done)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
		s.Logger.Info("Server stopped")
	})
	return err
}
