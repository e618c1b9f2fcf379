package models

// MPoint is a pixel coordinate.
type MPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MCandleGeometry is the pixel geometry of one candle column.
type MCandleGeometry struct {
	X            float64 `json:"x"`
	Width        float64 `json:"width"`
	WickX        float64 `json:"wick_x"`
	WickTop      float64 `json:"wick_top"`
	WickBottom   float64 `json:"wick_bottom"`
	BodyTop      float64 `json:"body_top"`
	BodyHeight   float64 `json:"body_height"`
	VolumeTop    float64 `json:"volume_top"`
	VolumeHeight float64 `json:"volume_height"`
	Bullish      bool    `json:"bullish"`
}

// MPriceLabel is a price axis tick on the right gutter.
type MPriceLabel struct {
	Y     float64 `json:"y"`
	Price string  `json:"price"`
}

// MChartLayout is the full geometry of one chart frame.
type MChartLayout struct {
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	MinPrice    float64           `json:"min_price"`
	MaxPrice    float64           `json:"max_price"`
	ColumnWidth float64           `json:"column_width"`
	Gap         float64           `json:"gap"`
	Candles     []MCandleGeometry `json:"candles"`
	MAFast      []MPoint          `json:"ma_fast"`
	MASlow      []MPoint          `json:"ma_slow"`
	LastPriceY  float64           `json:"last_price_y"`
	LastBullish bool              `json:"last_bullish"`
	PriceLabels []MPriceLabel     `json:"price_labels"`
}
