package simulator

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"market-simulator/src/models"
	"market-simulator/src/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const logTimeFormat = "15:04:05"

// -----------------------------------------------------------------------------

// ActivityLog synthesizes trade/order lines into a bounded ring buffer.
type ActivityLog struct {
	cfg   models.MActivityConfig
	pair  string
	base  string
	clock clockwork.Clock
	rng   *rand.Rand

	mu      sync.RWMutex
	entries *utils.RingBuffer[models.MLogEntry]
}

// -----------------------------------------------------------------------------

// NewActivityLog pre-fills cfg.SeedEntries lines
func NewActivityLog(cfg models.MActivityConfig, symbol string, clock clockwork.Clock, rng *rand.Rand) *ActivityLog {
	base := symbol
	if i := strings.Index(symbol, "/"); i > 0 {
		base = symbol[:i]
	}

	a := &ActivityLog{
		cfg:     cfg,
		pair:    symbol,
		base:    base,
		clock:   clock,
		rng:     rng,
		entries: utils.NewRingBuffer[models.MLogEntry](cfg.Capacity),
	}

	for i := 0; i < cfg.SeedEntries; i++ {
		a.entries.Append(a.generate())
	}
	return a
}

// -----------------------------------------------------------------------------

// Tick appends one synthesized line and returns it
func (a *ActivityLog) Tick() models.MLogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.generate()
	a.entries.Append(entry)
	return entry
}

// -----------------------------------------------------------------------------

// Append adds an externally built line (control plane, tests)
func (a *ActivityLog) Append(text string) models.MLogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := models.MLogEntry{
		ID:   uuid.NewString(),
		Text: text,
		Time: a.clock.Now().Format(logTimeFormat),
	}
	a.entries.Append(entry)
	return entry
}

// -----------------------------------------------------------------------------

func (a *ActivityLog) generate() models.MLogEntry {
	orderNum := 1000 + a.rng.Intn(9000)
	block := 900 + a.rng.Intn(5000)
	ago := fmt.Sprintf("%.1f", a.rng.Float64()*2)

	var text string
	switch a.rng.Intn(4) {
	case 0:
		text = fmt.Sprintf("> Order #%d filled in block %d (%ss ago)", orderNum, block, ago)
	case 1:
		text = fmt.Sprintf("> Swap %s executed @ %.2f (%ss ago)", a.pair, utils.Uniform(a.rng, 142, 144), ago)
	case 2:
		text = fmt.Sprintf("> Partial fill #%d - %.1f %s (%ss ago)", orderNum, a.rng.Float64()*50, a.base, ago)
	default:
		text = fmt.Sprintf("> Limit order #%d placed @ %.2f (%ss ago)", orderNum, utils.Uniform(a.rng, 141, 144), ago)
	}

	return models.MLogEntry{
		ID:   uuid.NewString(),
		Text: text,
		Time: a.clock.Now().Format(logTimeFormat),
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns entries oldest first
func (a *ActivityLog) Snapshot() models.MActivitySnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return models.MActivitySnapshot{
		Entries:   a.entries.GetAll(),
		Capacity:  a.entries.Capacity(),
		Timestamp: a.clock.Now().UnixMilli(),
	}
}
