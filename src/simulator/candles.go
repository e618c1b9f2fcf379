package simulator

import (
	"math"
	"math/rand"
	"sync"

	"market-simulator/src/analysis/core"
	"market-simulator/src/models"

	"github.com/jonboulle/clockwork"
)

// -----------------------------------------------------------------------------

// Candles keeps a fixed-length OHLCV window driven by a random walk.
type Candles struct {
	cfg    models.MChartConfig
	symbol string
	clock  clockwork.Clock
	rng    *rand.Rand

	mu      sync.RWMutex
	candles []models.MCandle
}

// -----------------------------------------------------------------------------

// NewCandles seeds cfg.Candles candles walking up from cfg.StartPrice
func NewCandles(cfg models.MChartConfig, symbol string, clock clockwork.Clock, rng *rand.Rand) *Candles {
	c := &Candles{
		cfg:     cfg,
		symbol:  symbol,
		clock:   clock,
		rng:     rng,
		candles: make([]models.MCandle, cfg.Candles),
	}

	price := cfg.StartPrice
	for i := range c.candles {
		open := price
		close := math.Max(minMidPrice, open+(rng.Float64()-0.48)*3)
		high := math.Max(open, close) + rng.Float64()*1.5
		low := math.Max(minMidPrice/2, math.Min(open, close)-rng.Float64()*1.5)
		c.candles[i] = models.MCandle{
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 50 + rng.Float64()*200,
		}
		price = close
	}

	return c
}

// -----------------------------------------------------------------------------

// TickClose perturbs the newest close and widens its range
func (c *Candles) TickClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := &c.candles[len(c.candles)-1]
	last.Close = math.Max(minMidPrice, last.Close+(c.rng.Float64()-0.48)*0.8)
	last.High = math.Max(last.High, last.Close)
	last.Low = math.Min(last.Low, last.Close)
}

// -----------------------------------------------------------------------------

// AppendCandle opens a new candle at the last close and retires the oldest one,
// which is returned for archiving.
func (c *Candles) AppendCandle() models.MCandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	open := c.candles[len(c.candles)-1].Close
	change := (c.rng.Float64() - 0.48) * 2
	next := models.MCandle{
		Open:   open,
		Close:  math.Max(minMidPrice, open+change),
		High:   open + math.Abs(change) + c.rng.Float64(),
		Low:    math.Max(minMidPrice/2, open-math.Abs(change)-c.rng.Float64()),
		Volume: 50 + c.rng.Float64()*200,
	}

	retired := c.candles[0]
	copy(c.candles, c.candles[1:])
	c.candles[len(c.candles)-1] = next
	return retired
}

// -----------------------------------------------------------------------------

// Snapshot copies the window and derives the moving averages and header values
func (c *Candles) Snapshot() models.MChartSnapshot {
	c.mu.RLock()
	candles := make([]models.MCandle, len(c.candles))
	copy(candles, c.candles)
	c.mu.RUnlock()

	closes := make([]float64, len(candles))
	for i, cd := range candles {
		closes[i] = cd.Close
	}

	last := candles[len(candles)-1]
	return models.MChartSnapshot{
		Symbol:        c.symbol,
		Candles:       candles,
		MAFast:        core.MovingAverage(closes, c.cfg.MAFast),
		MASlow:        core.MovingAverage(closes, c.cfg.MASlow),
		FastPeriod:    c.cfg.MAFast,
		SlowPeriod:    c.cfg.MASlow,
		LastPrice:     last.Close,
		ChangePercent: core.ChangePercent(last.Close, last.Open),
		Timestamp:     c.clock.Now().UnixMilli(),
	}
}
