package models

// MCandle is one OHLCV bar of the simulated chart.
type MCandle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// MChartSnapshot carries the candle window and the projections derived from it.
type MChartSnapshot struct {
	Symbol        string    `json:"symbol"`
	Candles       []MCandle `json:"candles"`
	MAFast        []float64 `json:"ma_fast"`
	MASlow        []float64 `json:"ma_slow"`
	FastPeriod    int       `json:"fast_period"`
	SlowPeriod    int       `json:"slow_period"`
	LastPrice     float64   `json:"last_price"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     int64     `json:"timestamp"`
}
