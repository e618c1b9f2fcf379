package models

// Dashboard channels
const (
	ChannelOrderBook = "orderbook"
	ChannelChart     = "chart"
	ChannelActivity  = "activity"
	ChannelStats     = "stats"
)

// AllChannels lists every panel channel in broadcast order.
var AllChannels = []string{ChannelOrderBook, ChannelChart, ChannelActivity, ChannelStats}

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

type MDashboardState struct {
	OrderBook MOrderBookSnapshot `json:"orderbook"`
	Chart     MChartSnapshot     `json:"chart"`
	Activity  MActivitySnapshot  `json:"activity"`
	Stats     MNetworkStats      `json:"stats"`
	Timestamp int64              `json:"timestamp"`
}

// MDashboardMessage is the websocket envelope.
type MDashboardMessage struct {
	Type      string      `json:"type"` // "INITIAL" or "UPDATE"
	Channel   string      `json:"channel"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command  string   `json:"command"`
	Channels []string `json:"channels"`
}
