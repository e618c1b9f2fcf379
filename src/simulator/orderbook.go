package simulator

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"market-simulator/src/models"
	"market-simulator/src/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	minMidPrice = 0.01

	keepProbability  = 0.4
	flashProbability = 0.2
)

// -----------------------------------------------------------------------------

// OrderBook keeps two fixed-length ladders around a drifting mid price.
type OrderBook struct {
	cfg   models.MOrderBookConfig
	clock clockwork.Clock
	rng   *rand.Rand

	mu       sync.RWMutex
	asks     []models.MPriceLevel
	bids     []models.MPriceLevel
	midPrice float64
	spread   float64
}

// -----------------------------------------------------------------------------

// NewOrderBook seeds cfg.Levels asks and bids around cfg.MidPrice
func NewOrderBook(cfg models.MOrderBookConfig, clock clockwork.Clock, rng *rand.Rand) *OrderBook {
	ob := &OrderBook{
		cfg:      cfg,
		clock:    clock,
		rng:      rng,
		midPrice: cfg.MidPrice,
		spread:   utils.Round2(utils.Uniform(rng, 0.02, 0.10)),
	}

	ob.asks = ob.seedSide(+1)
	ob.bids = ob.seedSide(-1)
	return ob
}

// -----------------------------------------------------------------------------

// seedSide builds one ladder. dir is +1 for asks, -1 for bids.
func (ob *OrderBook) seedSide(dir float64) []models.MPriceLevel {
	levels := make([]models.MPriceLevel, ob.cfg.Levels)
	for i := range levels {
		offset := float64(i+1) * utils.Uniform(ob.rng, 0.01, 0.09)
		price := math.Max(minMidPrice, ob.cfg.MidPrice+dir*offset)
		levels[i] = models.MPriceLevel{
			ID:    uuid.NewString(),
			Price: utils.Round2(price),
			Size:  utils.Round2(utils.Uniform(ob.rng, 10, 510)),
		}
	}

	// Best price first: asks ascend, bids descend
	sort.SliceStable(levels, func(a, b int) bool {
		if dir > 0 {
			return levels[a].Price < levels[b].Price
		}
		return levels[a].Price > levels[b].Price
	})

	recomputeTotals(levels)
	return levels
}

// -----------------------------------------------------------------------------

// Tick mutates sizes, flash flags, mid price and spread
func (ob *OrderBook) Tick() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.mutateSide(ob.asks)
	ob.mutateSide(ob.bids)

	drift := (ob.rng.Float64() - 0.49) * 0.06
	ob.midPrice = math.Max(minMidPrice, ob.midPrice+drift)
	ob.spread = utils.Round2(utils.Uniform(ob.rng, 0.02, 0.10))
}

// -----------------------------------------------------------------------------

func (ob *OrderBook) mutateSide(levels []models.MPriceLevel) {
	for i := range levels {
		if ob.rng.Float64() < keepProbability {
			levels[i].Flash = false
			continue
		}

		delta := (ob.rng.Float64() - 0.6) * 50
		levels[i].Size = math.Max(ob.cfg.MinSize, levels[i].Size+delta)
		levels[i].Flash = ob.rng.Float64() < flashProbability
	}

	recomputeTotals(levels)
}

// -----------------------------------------------------------------------------

func recomputeTotals(levels []models.MPriceLevel) {
	total := 0.0
	for i := range levels {
		total += levels[i].Size
		levels[i].Total = total
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the book
func (ob *OrderBook) Snapshot() models.MOrderBookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	asks := make([]models.MPriceLevel, len(ob.asks))
	copy(asks, ob.asks)
	bids := make([]models.MPriceLevel, len(ob.bids))
	copy(bids, ob.bids)

	return models.MOrderBookSnapshot{
		Asks:      asks,
		Bids:      bids,
		MidPrice:  utils.Round2(ob.midPrice),
		Spread:    ob.spread,
		Timestamp: ob.clock.Now().UnixMilli(),
	}
}
