package server

import (
	"sync"
	"time"

	"market-simulator/src/models"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // client commands are tiny
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub  *DashboardServer
	conn *websocket.Conn
	send chan *models.MDashboardMessage

	// set by the hub under sendMu before send is closed
	sendMu sync.Mutex
	closed bool

	subsMu sync.RWMutex
	subs   map[string]bool // empty = every channel
}

// -----------------------------------------------------------------------------

func newClient(hub *DashboardServer, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MDashboardMessage, 256),
		subs: map[string]bool{},
	}
}

// -----------------------------------------------------------------------------

// subscribe replaces the channel selection and returns it (known channels only)
func (c *Client) subscribe(channels []string) []string {
	subs := map[string]bool{}
	for _, ch := range channels {
		if isKnownChannel(ch) {
			subs[ch] = true
		}
	}

	c.subsMu.Lock()
	c.subs = subs
	c.subsMu.Unlock()

	return c.channels()
}

// -----------------------------------------------------------------------------

func (c *Client) subscribed(channel string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return len(c.subs) == 0 || c.subs[channel]
}

// -----------------------------------------------------------------------------

// channels lists the selection in broadcast order
func (c *Client) channels() []string {
	out := make([]string, 0, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		if c.subscribed(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// trySend queues a direct reply without blocking; false when full or closed
func (c *Client) trySend(msg *models.MDashboardMessage) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		// Handle the message (subscribe commands)
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.hub.Logger.Error("Failed to encode %s message: %v", message.Channel, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
