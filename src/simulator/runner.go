package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/jonboulle/clockwork"
)

// Publisher receives every fresh panel snapshot
type Publisher interface {
	Broadcast(channel string, payload interface{})
}

// StatsPoller produces one stats sample per call and never fails
type StatsPoller interface {
	Poll(ctx context.Context) models.MNetworkStats
}

// -----------------------------------------------------------------------------

// Runner owns the recurring timers of every simulator and forwards their
// snapshots to the publisher.
type Runner struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	OrderBook *OrderBook
	Candles   *Candles
	Activity  *ActivityLog

	clock     clockwork.Clock
	poller    StatsPoller
	publisher Publisher
	archive   interfaces.IArchive

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	// last stats sample, zero until the first poll
	statsMu  sync.RWMutex
	stats    models.MNetworkStats
	hasStats bool
}

// -----------------------------------------------------------------------------

// NewRunner builds the three in-memory simulators. poller and archive may be nil.
func NewRunner(cfg *models.MConfig, clock clockwork.Clock, poller StatsPoller, publisher Publisher, archive interfaces.IArchive) *Runner {
	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}

	// One source per simulator: *rand.Rand is not safe for concurrent use
	newRng := func(offset int64) *rand.Rand {
		return rand.New(rand.NewSource(seed + offset))
	}

	return &Runner{
		Config:    cfg,
		Logger:    logger.NewLogger("Runner"),
		OrderBook: NewOrderBook(cfg.Simulator.OrderBook, clock, newRng(1)),
		Candles:   NewCandles(cfg.Simulator.Chart, cfg.Symbol, clock, newRng(2)),
		Activity:  NewActivityLog(cfg.Simulator.Activity, cfg.Symbol, clock, newRng(3)),
		clock:     clock,
		poller:    poller,
		publisher: publisher,
		archive:   archive,
	}
}

// -----------------------------------------------------------------------------

// Start publishes the seeded state and launches one goroutine per timer
func (r *Runner) Start(parentCtx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelFunc != nil {
		return fmt.Errorf("runner is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	r.cancelFunc = cancel

	sim := r.Config.Simulator

	r.publish(models.ChannelOrderBook, r.OrderBook.Snapshot())
	r.publish(models.ChannelChart, r.Candles.Snapshot())
	r.publish(models.ChannelActivity, r.Activity.Snapshot())

	r.every(ctx, sim.OrderBook.TickMs, func() {
		r.OrderBook.Tick()
		r.publish(models.ChannelOrderBook, r.OrderBook.Snapshot())
	})

	r.every(ctx, sim.Chart.TickMs, func() {
		r.Candles.TickClose()
		r.publish(models.ChannelChart, r.Candles.Snapshot())
	})

	r.every(ctx, sim.Chart.CandleMs, func() {
		retired := r.Candles.AppendCandle()
		r.archiveCandle(retired)
		r.publish(models.ChannelChart, r.Candles.Snapshot())
	})

	r.every(ctx, sim.Activity.TickMs, func() {
		r.Activity.Tick()
		r.publish(models.ChannelActivity, r.Activity.Snapshot())
	})

	if r.poller != nil {
		// First poll runs immediately. Later polls share the same goroutine,
		// so at most one is in flight and missed ticks collapse into one.
		pollOnce := func() {
			stats := r.poller.Poll(ctx)
			if ctx.Err() != nil {
				return
			}
			r.recordStats(stats)
			r.archiveStats(stats)
			r.publish(models.ChannelStats, stats)
		}

		r.schedule(ctx, sim.Stats.PollMs, pollOnce, true)
	}

	r.Logger.Info("Simulators started (seed=%d, poller=%v, archive=%v)", sim.Seed, r.poller != nil, r.archive != nil)
	return nil
}

// -----------------------------------------------------------------------------

func (r *Runner) every(ctx context.Context, ms int, fn func()) {
	r.schedule(ctx, ms, fn, false)
}

// schedule creates the ticker synchronously so callers (and fake clocks) see
// it registered once Start returns.
func (r *Runner) schedule(ctx context.Context, ms int, fn func(), immediate bool) {
	ticker := r.clock.NewTicker(time.Duration(ms) * time.Millisecond)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()

		if immediate {
			fn()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				fn()
			}
		}
	}()
}

// -----------------------------------------------------------------------------

func (r *Runner) publish(channel string, payload interface{}) {
	if r.publisher != nil {
		r.publisher.Broadcast(channel, payload)
	}
}

// -----------------------------------------------------------------------------

func (r *Runner) archiveCandle(candle models.MCandle) {
	if r.archive == nil {
		return
	}
	if err := r.archive.SaveCandles(r.Config.Symbol, []models.MCandle{candle}, r.clock.Now().UnixMilli()); err != nil {
		r.Logger.Warning("Failed to archive candle: %v", err)
	}
}

// -----------------------------------------------------------------------------

func (r *Runner) archiveStats(stats models.MNetworkStats) {
	if r.archive == nil {
		return
	}
	if err := r.archive.SaveNetworkStats(stats); err != nil {
		r.Logger.Warning("Failed to archive network stats: %v", err)
	}
}

// -----------------------------------------------------------------------------

// Stop cancels every timer and waits for the goroutines to exit
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancelFunc
	r.cancelFunc = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	r.wg.Wait()
	r.Logger.Info("Simulators stopped")
}

// -----------------------------------------------------------------------------

// Wait blocks until every runner goroutine has exited
func (r *Runner) Wait() {
	r.wg.Wait()
}

// -----------------------------------------------------------------------------

func (r *Runner) recordStats(stats models.MNetworkStats) {
	r.statsMu.Lock()
	r.stats = stats
	r.hasStats = true
	r.statsMu.Unlock()
}

// -----------------------------------------------------------------------------

// Stats returns the last polled sample; false before the first poll
func (r *Runner) Stats() (models.MNetworkStats, bool) {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats, r.hasStats
}

// -----------------------------------------------------------------------------

// Panel returns a fresh snapshot of one channel
func (r *Runner) Panel(channel string) (interface{}, bool) {
	switch channel {
	case models.ChannelOrderBook:
		return r.OrderBook.Snapshot(), true
	case models.ChannelChart:
		return r.Candles.Snapshot(), true
	case models.ChannelActivity:
		return r.Activity.Snapshot(), true
	case models.ChannelStats:
		return r.Stats()
	}
	return nil, false
}

// -----------------------------------------------------------------------------

// Dashboard assembles the current state of every panel; stats read PENDING
// until the first poll lands
func (r *Runner) Dashboard() models.MDashboardState {
	now := r.clock.Now().UnixMilli()

	stats, ok := r.Stats()
	if !ok {
		stats = models.PendingNetworkStats(now)
	}

	return models.MDashboardState{
		OrderBook: r.OrderBook.Snapshot(),
		Chart:     r.Candles.Snapshot(),
		Activity:  r.Activity.Snapshot(),
		Stats:     stats,
		Timestamp: now,
	}
}
