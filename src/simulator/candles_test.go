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

func newTestCandles(seed int64) *Candles {
	cfg := config.Defaults().Simulator.Chart
	return NewCandles(cfg, "MON/USDC", clockwork.NewFakeClockAt(time.Unix(1700000000, 0)), rand.New(rand.NewSource(seed)))
}

func assertCandleInvariant(t *testing.T, candles []models.MCandle) {
	t.Helper()
	for i, c := range candles {
		assert.GreaterOrEqual(t, c.High, c.Open, "high < open at %d", i)
		assert.GreaterOrEqual(t, c.High, c.Close, "high < close at %d", i)
		assert.LessOrEqual(t, c.Low, c.Open, "low > open at %d", i)
		assert.LessOrEqual(t, c.Low, c.Close, "low > close at %d", i)
		assert.Greater(t, c.Low, 0.0)
	}
}

func TestCandlesSeedIsRandomWalk(t *testing.T) {
	c := newTestCandles(1)
	snap := c.Snapshot()

	require.Len(t, snap.Candles, 60)
	assert.Equal(t, 142.0, snap.Candles[0].Open)
	for i := 1; i < len(snap.Candles); i++ {
		assert.Equal(t, snap.Candles[i-1].Close, snap.Candles[i].Open)
	}
	for _, cd := range snap.Candles {
		assert.GreaterOrEqual(t, cd.Volume, 50.0)
		assert.LessOrEqual(t, cd.Volume, 250.0)
	}
	assertCandleInvariant(t, snap.Candles)
}

func TestCandlesInvariantAcrossFastTicks(t *testing.T) {
	c := newTestCandles(2)
	for i := 0; i < 2000; i++ {
		c.TickClose()
		snap := c.Snapshot()
		assertCandleInvariant(t, snap.Candles[len(snap.Candles)-1:])
	}
}

func TestCandlesAppendKeepsLengthAndContinuity(t *testing.T) {
	c := newTestCandles(3)
	c.TickClose()

	before := c.Snapshot()
	prevClose := before.Candles[len(before.Candles)-1].Close

	retired := c.AppendCandle()
	after := c.Snapshot()

	require.Len(t, after.Candles, 60)
	assert.Equal(t, before.Candles[0], retired)
	assert.Equal(t, prevClose, after.Candles[59].Open)
	assert.Equal(t, before.Candles[1], after.Candles[0])
	assertCandleInvariant(t, after.Candles)
}

func TestCandlesInvariantAcrossMixedTicks(t *testing.T) {
	c := newTestCandles(4)
	for i := 0; i < 500; i++ {
		c.TickClose()
		if i%8 == 0 {
			c.AppendCandle()
		}
	}
	assertCandleInvariant(t, c.Snapshot().Candles)
}

func TestCandlesSnapshotDerivesProjections(t *testing.T) {
	c := newTestCandles(5)
	snap := c.Snapshot()

	assert.Equal(t, "MON/USDC", snap.Symbol)
	assert.Equal(t, 7, snap.FastPeriod)
	assert.Equal(t, 25, snap.SlowPeriod)
	assert.Len(t, snap.MAFast, 60)
	assert.Len(t, snap.MASlow, 60)

	last := snap.Candles[59]
	assert.Equal(t, last.Close, snap.LastPrice)
	assert.InDelta(t, (last.Close-last.Open)/last.Open*100, snap.ChangePercent, 1e-9)

	// warm-up values pass closes through
	assert.Equal(t, snap.Candles[0].Close, snap.MASlow[0])
	assert.Equal(t, snap.Candles[23].Close, snap.MASlow[23])

	// projection must not touch the window
	again := c.Snapshot()
	assert.Equal(t, snap.Candles, again.Candles)
}
