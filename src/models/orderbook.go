package models

// MPriceLevel is one row of the synthetic order book.
type MPriceLevel struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
	Total float64 `json:"total"` // running sum of sizes from the best price outward
	Flash bool    `json:"flash"`
}

// MOrderBookSnapshot holds both ladders, best price first on each side.
type MOrderBookSnapshot struct {
	Asks      []MPriceLevel `json:"asks"`
	Bids      []MPriceLevel `json:"bids"`
	MidPrice  float64       `json:"mid_price"`
	Spread    float64       `json:"spread"`
	Timestamp int64         `json:"timestamp"`
}
