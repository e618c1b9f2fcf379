package models

// MNetworkStats is what the stats bar shows, real or synthetic.
type MNetworkStats struct {
	TPS         int64  `json:"tps"`
	BlockHeight uint64 `json:"block_height"`
	GasPrice    string `json:"gas_price"`
	BlockTime   string `json:"block_time"`
	IsLive      bool   `json:"is_live"`
	State       string `json:"state"`
	Timestamp   int64  `json:"timestamp"`
}

// MPollerStatus exposes the poller state machine for the control plane.
type MPollerStatus struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	DemoRecovery        bool   `json:"demo_recovery"`
	LastBlock           uint64 `json:"last_block"`
}

// PendingNetworkStats is the value shown before the first poll completes.
func PendingNetworkStats(timestamp int64) MNetworkStats {
	return MNetworkStats{
		GasPrice:  "0.00",
		BlockTime: "1s",
		State:     "PENDING",
		Timestamp: timestamp,
	}
}
