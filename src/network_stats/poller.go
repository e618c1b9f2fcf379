package netstats

import (
	"context"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"market-simulator/src/helpers"
	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/models"
	"market-simulator/src/utils"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Poller states
const (
	StatePending  = "PENDING"
	StateLive     = "LIVE"
	StateDegraded = "DEGRADED"
	StateDemo     = "DEMO"
)

const (
	blockTime = "1s"

	fallbackTPS   int64  = 5000
	fallbackBlock uint64 = 48_000_000
	minTPS        int64  = 2000
	maxTPS        int64  = 10000
)

var fallbackGas = []string{"0.50", "0.75", "1.00", "1.25", "0.30"}

// -----------------------------------------------------------------------------

// Poller turns best-effort chain reads into a stats value that is always valid.
type Poller struct {
	cfg    models.MStatsConfig
	client interfaces.IChainClient
	clock  clockwork.Clock
	rng    *rand.Rand
	Logger *logger.Logger

	mu           sync.RWMutex
	state        string
	failures     int
	demoRecovery bool
	lastAttempt  time.Time
	lastBlock    uint64
	hasBlock     bool
	current      models.MNetworkStats
	hasCurrent   bool
}

// -----------------------------------------------------------------------------

func NewPoller(cfg models.MStatsConfig, client interfaces.IChainClient, clock clockwork.Clock, rng *rand.Rand, log *logger.Logger) *Poller {
	p := &Poller{
		cfg:          cfg,
		client:       client,
		clock:        clock,
		rng:          rng,
		Logger:       log,
		state:        StatePending,
		demoRecovery: cfg.DemoRecovery,
	}
	p.current = models.PendingNetworkStats(clock.Now().UnixMilli())
	return p
}

// -----------------------------------------------------------------------------

// Poll runs one cycle of the state machine and returns the resulting stats
func (p *Poller) Poll(ctx context.Context) models.MNetworkStats {
	if !p.shouldAttempt() {
		return p.fallback()
	}

	block, gasWei, err := p.fetch(ctx)
	if err != nil {
		if helpers.IsTimeout(err) {
			p.Logger.Debug("Poll timed out: %v", err)
		} else {
			p.Logger.Debug("Poll failed: %v", err)
		}
		return p.fail()
	}
	return p.succeed(block, gasWei)
}

// -----------------------------------------------------------------------------

// shouldAttempt reports whether a real RPC read is allowed this cycle
func (p *Poller) shouldAttempt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateDemo {
		return true
	}
	if !p.demoRecovery {
		return false
	}

	now := p.clock.Now()
	retry := time.Duration(p.cfg.DemoRetrySeconds) * time.Second
	if !p.lastAttempt.IsZero() && now.Sub(p.lastAttempt) < retry {
		return false
	}
	p.lastAttempt = now
	return true
}

// -----------------------------------------------------------------------------

// fetch issues both reads concurrently and fails on the first error
func (p *Poller) fetch(ctx context.Context) (interfaces.BlockSummary, *big.Int, error) {
	var block interfaces.BlockSummary
	var gasWei *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		block, err = p.client.LatestBlock(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		gasWei, err = p.client.GasPrice(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return interfaces.BlockSummary{}, nil, err
	}
	return block, gasWei, nil
}

// -----------------------------------------------------------------------------

func (p *Poller) succeed(block interfaces.BlockSummary, gasWei *big.Int) models.MNetworkStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Between blocks the tx count would read as a misleading zero rate
	tps := block.TxCount
	if p.hasBlock && block.Number == p.lastBlock && p.hasCurrent {
		tps = p.current.TPS
	}

	if p.state == StateDemo {
		p.Logger.Info("RPC reachable again, leaving demo mode")
	}

	p.lastBlock = block.Number
	p.hasBlock = true
	p.failures = 0
	p.state = StateLive

	p.current = models.MNetworkStats{
		TPS:         tps,
		BlockHeight: block.Number,
		GasPrice:    FormatGwei(gasWei),
		BlockTime:   blockTime,
		IsLive:      true,
		State:       StateLive,
		Timestamp:   p.clock.Now().UnixMilli(),
	}
	p.hasCurrent = true
	return p.current
}

// -----------------------------------------------------------------------------

func (p *Poller) fail() models.MNetworkStats {
	p.mu.Lock()
	p.failures++

	switch {
	case p.state == StateDemo:
		// stays in demo until a retry succeeds
	case p.failures >= p.cfg.FailureThreshold:
		p.state = StateDemo
		p.lastAttempt = p.clock.Now()
		p.Logger.Warning("%d consecutive RPC failures, switching to demo data", p.failures)
	default:
		p.state = StateDegraded
	}
	p.mu.Unlock()

	return p.fallback()
}

// -----------------------------------------------------------------------------

// fallback synthesizes the next stats value from the previous one
func (p *Poller) fallback() models.MNetworkStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	prevTPS := fallbackTPS
	block := fallbackBlock
	if p.hasCurrent {
		prevTPS = p.current.TPS
		block = p.current.BlockHeight + 1
	}

	tps := utils.Clamp(prevTPS+int64(p.rng.Intn(800))-400, minTPS, maxTPS)

	p.current = models.MNetworkStats{
		TPS:         tps,
		BlockHeight: block,
		GasPrice:    fallbackGas[p.rng.Intn(len(fallbackGas))],
		BlockTime:   blockTime,
		IsLive:      false,
		State:       p.state,
		Timestamp:   p.clock.Now().UnixMilli(),
	}
	p.hasCurrent = true
	return p.current
}

// -----------------------------------------------------------------------------

// Latest returns the most recent stats without polling
func (p *Poller) Latest() models.MNetworkStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// -----------------------------------------------------------------------------

// Status exposes the state machine
func (p *Poller) Status() models.MPollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return models.MPollerStatus{
		State:               p.state,
		ConsecutiveFailures: p.failures,
		DemoRecovery:        p.demoRecovery,
		LastBlock:           p.lastBlock,
	}
}

// -----------------------------------------------------------------------------

// SetDemoRecovery toggles probing out of demo mode at runtime
func (p *Poller) SetDemoRecovery(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.demoRecovery = enabled
	p.lastAttempt = time.Time{}
}

// -----------------------------------------------------------------------------

// FormatGwei renders a wei amount as gwei with 2 decimals
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(wei, -9).StringFixed(2)
}
