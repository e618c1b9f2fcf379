package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"market-simulator/src/helpers"
	"market-simulator/src/models"
	"market-simulator/src/render"

	"github.com/gin-gonic/gin"
)

const (
	defaultLayoutWidth  = 800
	defaultLayoutHeight = 400
)

// -----------------------------------------------------------------------------
// REST Handlers
// -----------------------------------------------------------------------------

// getPanel serves the cached snapshot of one channel
func (s *DashboardServer) getPanel(channel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := s.snapshot(channel)
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": channel + " not available yet"})
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getChartLayout(c *gin.Context) {
	width, err := floatQuery(c, "width", defaultLayoutWidth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	height, err := floatQuery(c, "height", defaultLayoutHeight)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, ok := s.snapshot(models.ChannelChart)
	snap, isChart := payload.(models.MChartSnapshot)
	if !ok || !isChart {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart not available yet"})
		return
	}

	layout, err := render.ComputeLayout(snap, width, height, render.DefaultOptions())
	switch {
	case errors.Is(err, render.ErrInvalidViewport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, render.ErrEmptySeries):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, layout)
	}
}

// -----------------------------------------------------------------------------

// getDashboard returns every cached panel in one document
func (s *DashboardServer) getDashboard(c *gin.Context) {
	s.stateMutex.RLock()
	panels := make(gin.H, len(s.latest)+1)
	for ch, payload := range s.latest {
		panels[ch] = payload
	}
	panels["timestamp"] = s.updatedAt
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, panels)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	cfg := *s.Config
	// connection strings may carry credentials
	cfg.Storage.DBConnectionString = ""
	cfg.Network.Proxies = redactProxies(cfg.Network.Proxies)
	c.JSON(http.StatusOK, cfg)
}

// -----------------------------------------------------------------------------

// redactProxies masks proxy passwords; unparsable entries are dropped
func redactProxies(proxies []string) []string {
	out := make([]string, 0, len(proxies))
	for _, p := range proxies {
		u, err := url.Parse(helpers.FormatProxy(p))
		if err != nil {
			continue
		}
		out = append(out, u.Redacted())
	}
	return out
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	updatedAt := s.updatedAt
	s.stateMutex.RUnlock()

	resp := gin.H{
		"status":        "ok",
		"connections":   s.clientCount.Load(),
		"latest_update": updatedAt,
		"server_time":   time.Now().UnixMilli(),
	}
	if s.status != nil {
		resp["poller"] = s.status.Status()
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *DashboardServer) snapshot(channel string) (interface{}, bool) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	payload, ok := s.latest[channel]
	return payload, ok
}

// -----------------------------------------------------------------------------

func isKnownChannel(channel string) bool {
	for _, ch := range models.AllChannels {
		if ch == channel {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// payloadTimestamp reads the snapshot's own clock, so fake clocks flow through
func payloadTimestamp(payload interface{}) int64 {
	switch p := payload.(type) {
	case models.MOrderBookSnapshot:
		return p.Timestamp
	case models.MChartSnapshot:
		return p.Timestamp
	case models.MActivitySnapshot:
		return p.Timestamp
	case models.MNetworkStats:
		return p.Timestamp
	}
	return time.Now().UnixMilli()
}

// -----------------------------------------------------------------------------

func floatQuery(c *gin.Context, key string, fallback float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}
