package simulator

import (
	"math/rand"
	"testing"
	"time"

	"market-simulator/src/config"
	"market-simulator/src/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T, seed int64) *OrderBook {
	t.Helper()
	cfg := config.Defaults().Simulator.OrderBook
	return NewOrderBook(cfg, clockwork.NewFakeClockAt(time.Unix(1700000000, 0)), rand.New(rand.NewSource(seed)))
}

func assertLadder(t *testing.T, levels []models.MPriceLevel, ascending bool) {
	t.Helper()
	running := 0.0
	for i, lvl := range levels {
		running += lvl.Size
		assert.InDelta(t, running, lvl.Total, 1e-9, "total at %d", i)
		if i == 0 {
			continue
		}
		assert.GreaterOrEqual(t, lvl.Total, levels[i-1].Total, "totals must not decrease away from best price")
		if ascending {
			assert.GreaterOrEqual(t, lvl.Price, levels[i-1].Price)
		} else {
			assert.LessOrEqual(t, lvl.Price, levels[i-1].Price)
		}
	}
}

func TestOrderBookSeed(t *testing.T) {
	ob := newTestBook(t, 1)
	snap := ob.Snapshot()

	require.Len(t, snap.Asks, 14)
	require.Len(t, snap.Bids, 14)
	assert.Equal(t, 142.5, snap.MidPrice)
	assert.Equal(t, int64(1700000000000), snap.Timestamp)

	ids := map[string]bool{}
	for _, lvl := range append(append([]models.MPriceLevel{}, snap.Asks...), snap.Bids...) {
		assert.False(t, ids[lvl.ID], "duplicate id %s", lvl.ID)
		ids[lvl.ID] = true
		assert.GreaterOrEqual(t, lvl.Size, 10.0)
		assert.LessOrEqual(t, lvl.Size, 510.0)
		assert.False(t, lvl.Flash)
	}
	for _, ask := range snap.Asks {
		assert.Greater(t, ask.Price, 142.5)
	}
	for _, bid := range snap.Bids {
		assert.Less(t, bid.Price, 142.5)
	}

	assertLadder(t, snap.Asks, true)
	assertLadder(t, snap.Bids, false)
}

func TestOrderBookTickKeepsShape(t *testing.T) {
	ob := newTestBook(t, 2)
	before := ob.Snapshot()

	ob.Tick()
	after := ob.Snapshot()

	require.Len(t, after.Asks, 14)
	require.Len(t, after.Bids, 14)
	assertLadder(t, after.Asks, true)
	assertLadder(t, after.Bids, false)

	// rows are mutated in place, never replaced
	for i := range after.Asks {
		assert.Equal(t, before.Asks[i].ID, after.Asks[i].ID)
		assert.Equal(t, before.Asks[i].Price, after.Asks[i].Price)
	}
}

func TestOrderBookSizeFloorHolds(t *testing.T) {
	ob := newTestBook(t, 3)
	for i := 0; i < 5000; i++ {
		ob.Tick()
	}

	snap := ob.Snapshot()
	for _, lvl := range append(snap.Asks, snap.Bids...) {
		assert.GreaterOrEqual(t, lvl.Size, 5.0)
	}
	assert.GreaterOrEqual(t, snap.MidPrice, 0.01)
	assert.GreaterOrEqual(t, snap.Spread, 0.02)
	assert.LessOrEqual(t, snap.Spread, 0.10)
}

func TestOrderBookFlashClearsOnUntouchedRows(t *testing.T) {
	ob := newTestBook(t, 4)
	flashed := false
	for i := 0; i < 200 && !flashed; i++ {
		ob.Tick()
		for _, lvl := range ob.Snapshot().Asks {
			flashed = flashed || lvl.Flash
		}
	}
	assert.True(t, flashed, "some row should flash within 200 ticks")
}

func TestOrderBookSnapshotIsCopy(t *testing.T) {
	ob := newTestBook(t, 5)
	snap := ob.Snapshot()
	snap.Asks[0].Size = -1

	assert.NotEqual(t, -1.0, ob.Snapshot().Asks[0].Size)
}
