package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStatus struct{ status models.MPollerStatus }

func (f fixedStatus) Status() models.MPollerStatus { return f.status }

type wsMessage struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T) *DashboardServer {
	t.Helper()
	cfg := &models.MConfig{
		Name:     "market-simulator",
		Host:     "127.0.0.1",
		Port:     8000,
		LogLevel: "INFO",
		Symbol:   "MON/USDC",
		Storage:  models.MStorageConfig{DBType: "postgres", DBConnectionString: "postgres://user:secret@db/sim"},
		Network:  models.MNetworkConfig{Proxies: []string{"bob:hunter2@10.0.0.1:8080", "10.0.0.2:3128"}},
	}
	log := logger.NewLoggerWithWriter("server-test", &bytes.Buffer{})
	s := NewDashboardServer(cfg, log, fixedStatus{models.MPollerStatus{State: "DEMO", ConsecutiveFailures: 3}})
	t.Cleanup(func() { s.Stop() })
	return s
}

func sampleChart() models.MChartSnapshot {
	return models.MChartSnapshot{
		Symbol: "MON/USDC",
		Candles: []models.MCandle{
			{Open: 100, High: 104, Low: 98, Close: 103, Volume: 50},
			{Open: 103, High: 106, Low: 101, Close: 102, Volume: 80},
			{Open: 102, High: 105, Low: 99, Close: 104, Volume: 20},
		},
		MAFast:    []float64{103, 102.5, 103},
		MASlow:    []float64{103, 102.5, 103},
		LastPrice: 104,
		Timestamp: 1700000000000,
	}
}

func serve(s *DashboardServer, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------
// REST
// -----------------------------------------------------------------------------

func TestPanelNotAvailableBeforeFirstBroadcast(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/orderbook", "/api/chart", "/api/activity", "/api/stats", "/api/chart/layout"} {
		w := serve(s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestPanelServesLatestSnapshot(t *testing.T) {
	s := newTestServer(t)

	s.Broadcast(models.ChannelStats, models.MNetworkStats{TPS: 4200, BlockHeight: 10, GasPrice: "52.00", BlockTime: "1s", State: "LIVE", IsLive: true, Timestamp: 5})
	s.Broadcast(models.ChannelStats, models.MNetworkStats{TPS: 4300, BlockHeight: 11, GasPrice: "52.00", BlockTime: "1s", State: "LIVE", IsLive: true, Timestamp: 6})

	w := serve(s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.MNetworkStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(4300), stats.TPS)
	assert.Equal(t, uint64(11), stats.BlockHeight)
	assert.True(t, stats.IsLive)
}

func TestBroadcastIgnoresUnknownChannel(t *testing.T) {
	s := newTestServer(t)

	s.Broadcast("weather", map[string]int{"temp": 21})

	w := serve(s, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "weather")
}

func TestDashboardAggregatesPanels(t *testing.T) {
	s := newTestServer(t)

	s.Broadcast(models.ChannelChart, sampleChart())
	s.Broadcast(models.ChannelActivity, models.MActivitySnapshot{
		Entries:   []models.MLogEntry{{ID: "a", Text: "> Order #1 filled", Time: "14:05:07"}},
		Timestamp: 1700000000500,
	})

	w := serve(s, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, models.ChannelChart)
	assert.Contains(t, body, models.ChannelActivity)
	assert.NotContains(t, body, models.ChannelOrderBook)
	assert.Equal(t, "1700000000500", string(body["timestamp"]))
}

func TestChartLayoutEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.Broadcast(models.ChannelChart, sampleChart())

	w := serve(s, http.MethodGet, "/api/chart/layout?width=460&height=200", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var layout models.MChartLayout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layout))
	assert.Equal(t, 460.0, layout.Width)
	assert.Equal(t, 200.0, layout.Height)
	assert.Len(t, layout.Candles, 3)
	assert.Len(t, layout.MAFast, 3)

	// Defaults apply when the viewport is omitted
	w = serve(s, http.MethodGet, "/api/chart/layout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layout))
	assert.Equal(t, float64(defaultLayoutWidth), layout.Width)
}

func TestChartLayoutRejectsBadViewport(t *testing.T) {
	s := newTestServer(t)
	s.Broadcast(models.ChannelChart, sampleChart())

	bad := []string{
		"/api/chart/layout?width=abc",
		"/api/chart/layout?width=0&height=200",
		"/api/chart/layout?width=400&height=-5",
	}
	for _, target := range bad {
		w := serve(s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	// An empty value falls back to the default
	w := serve(s, http.MethodGet, "/api/chart/layout?height=", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChartLayoutEmptySeries(t *testing.T) {
	s := newTestServer(t)
	s.Broadcast(models.ChannelChart, models.MChartSnapshot{Symbol: "MON/USDC"})

	w := serve(s, http.MethodGet, "/api/chart/layout?width=400&height=200", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestConfigHidesConnectionString(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), `"symbol":"MON/USDC"`)

	// Proxy credentials are masked, hosts stay visible
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Contains(t, w.Body.String(), "10.0.0.1:8080")
	assert.Contains(t, w.Body.String(), "http://10.0.0.2:3128")

	// The live config is untouched
	assert.Equal(t, "postgres://user:secret@db/sim", s.Config.Storage.DBConnectionString)
	assert.Equal(t, "bob:hunter2@10.0.0.1:8080", s.Config.Network.Proxies[0])
}

func TestHealthReportsPoller(t *testing.T) {
	s := newTestServer(t)
	s.Broadcast(models.ChannelStats, models.MNetworkStats{State: "DEMO", Timestamp: 42})

	w := serve(s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status       string               `json:"status"`
		Connections  int64                `json:"connections"`
		LatestUpdate int64                `json:"latest_update"`
		Poller       models.MPollerStatus `json:"poller"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, int64(0), body.Connections)
	assert.Equal(t, int64(42), body.LatestUpdate)
	assert.Equal(t, "DEMO", body.Poller.State)
	assert.Equal(t, 3, body.Poller.ConsecutiveFailures)
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/api/health", nil)
	generated := w.Header().Get(RequestIDHeaderKey)
	assert.Len(t, generated, 36)

	w = serve(s, http.MethodGet, "/api/health", http.Header{RequestIDHeaderKey: {"req-123"}})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeaderKey))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodOptions, "/api/orderbook", http.Header{"Origin": {"http://localhost:5173"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")

	w = serve(s, http.MethodOptions, "/api/orderbook", http.Header{"Origin": {"http://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// -----------------------------------------------------------------------------
// WebSocket
// -----------------------------------------------------------------------------

func dialWS(t *testing.T, s *DashboardServer) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg wsMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// settle waits until the hub has consumed every queued broadcast
func settle(t *testing.T, s *DashboardServer) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.broadcast) == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketInitialThenFilteredUpdates(t *testing.T) {
	s := newTestServer(t)
	s.StartHub()

	s.Broadcast(models.ChannelOrderBook, models.MOrderBookSnapshot{MidPrice: 142.5, Timestamp: 1})
	s.Broadcast(models.ChannelStats, models.MNetworkStats{State: "PENDING", GasPrice: "0.00", BlockTime: "1s", Timestamp: 2})
	settle(t, s)

	conn := dialWS(t, s)

	// INITIAL per cached panel, in channel order
	first := readMessage(t, conn)
	second := readMessage(t, conn)
	assert.Equal(t, MessageInitial, first.Type)
	assert.Equal(t, models.ChannelOrderBook, first.Channel)
	assert.Equal(t, MessageInitial, second.Type)
	assert.Equal(t, models.ChannelStats, second.Channel)

	require.Eventually(t, func() bool { return s.clientCount.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Narrow the subscription to stats
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"subscribe","channels":["stats"]}`)))
	reply := readMessage(t, conn)
	assert.Equal(t, MessageInitial, reply.Type)
	assert.Equal(t, models.ChannelStats, reply.Channel)

	s.Broadcast(models.ChannelOrderBook, models.MOrderBookSnapshot{MidPrice: 143, Timestamp: 3})
	s.Broadcast(models.ChannelStats, models.MNetworkStats{State: "LIVE", TPS: 5000, Timestamp: 4})

	update := readMessage(t, conn)
	assert.Equal(t, MessageUpdate, update.Type)
	assert.Equal(t, models.ChannelStats, update.Channel)
	assert.Equal(t, int64(4), update.Timestamp)

	var stats models.MNetworkStats
	require.NoError(t, json.Unmarshal(update.Payload, &stats))
	assert.Equal(t, int64(5000), stats.TPS)
}

func TestWebSocketInvalidCommandDisconnects(t *testing.T) {
	s := newTestServer(t)
	s.StartHub()

	conn := dialWS(t, s)
	require.Eventually(t, func() bool { return s.clientCount.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.Eventually(t, func() bool { return s.clientCount.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStopClosesClients(t *testing.T) {
	s := newTestServer(t)
	s.StartHub()

	conn := dialWS(t, s)
	require.Eventually(t, func() bool { return s.clientCount.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Broadcast after stop must not block
	s.Broadcast(models.ChannelStats, models.MNetworkStats{Timestamp: 9})
}

func TestDroppedClientRejectsSubscribeReplies(t *testing.T) {
	s := newTestServer(t)
	s.StartHub()
	s.Broadcast(models.ChannelStats, models.MNetworkStats{State: "LIVE", Timestamp: 1})
	settle(t, s)

	client := newClient(s, nil)
	s.register <- client
	require.Eventually(t, func() bool { return s.clientCount.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Subscribe replies race the hub closing send on shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.HandleClientMessage(client, []byte(`{"command":"subscribe","channels":["stats"]}`))
		}
	}()
	require.NoError(t, s.Stop())
	wg.Wait()

	require.Eventually(t, func() bool { return s.clientCount.Load() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, client.trySend(&models.MDashboardMessage{Type: MessageUpdate, Channel: models.ChannelStats}))

	// Queued replies drain, then the channel reports closed
	for range client.send {
	}
}

func TestStopBeforeStartPreventsServing(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Stop())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Stop")
	}
}
