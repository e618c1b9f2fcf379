package server

import (
	"net/http"

	"market-simulator/src/models"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	MessageInitial = "INITIAL"
	MessageUpdate  = "UPDATE"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				s.dropClient(client)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Add(1)
			// Send the cached state of every panel on connect
			for _, msg := range s.initialMessages(client.channels()) {
				client.send <- msg
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				s.dropClient(client)
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				if !client.subscribed(message.Channel) {
					continue
				}
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.Logger.Warning("Dropping slow websocket client")
					s.dropClient(client)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) dropClient(client *Client) {
	delete(s.clients, client)
	s.clientCount.Add(-1)

	client.sendMu.Lock()
	client.closed = true
	close(client.send)
	client.sendMu.Unlock()
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast caches the snapshot of one panel and queues an UPDATE for subscribers
func (s *DashboardServer) Broadcast(channel string, payload interface{}) {
	if !isKnownChannel(channel) {
		s.Logger.Warning("Broadcast on unknown channel %q ignored", channel)
		return
	}

	msg := &models.MDashboardMessage{
		Type:      MessageUpdate,
		Channel:   channel,
		Payload:   payload,
		Timestamp: payloadTimestamp(payload),
	}

	s.stateMutex.Lock()
	s.latest[channel] = payload
	if msg.Timestamp > s.updatedAt {
		s.updatedAt = msg.Timestamp
	}
	s.stateMutex.Unlock()

	select {
	case <-s.done:
	case s.broadcast <- msg:
	default:
		// Queue full: REST and the next INITIAL still see the cached state
		s.Logger.Debug("Broadcast queue full, dropping %s update", channel)
	}
}

// -----------------------------------------------------------------------------

// initialMessages builds one INITIAL message per requested channel with data
func (s *DashboardServer) initialMessages(channels []string) []*models.MDashboardMessage {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	msgs := make([]*models.MDashboardMessage, 0, len(channels))
	for _, ch := range channels {
		payload, ok := s.latest[ch]
		if !ok {
			continue
		}
		msgs = append(msgs, &models.MDashboardMessage{
			Type:      MessageInitial,
			Channel:   ch,
			Payload:   payload,
			Timestamp: payloadTimestamp(payload),
		})
	}
	return msgs
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	channels := client.subscribe(cmd.Channels)

	// Answer with the current state of the new selection
	for _, msg := range s.initialMessages(channels) {
		if !client.trySend(msg) {
			break
		}
	}
}
