package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
}

func TestChangePercent(t *testing.T) {
	assert.Equal(t, 0.0, ChangePercent(10, 0))
	assert.InDelta(t, 10.0, ChangePercent(110, 100), 1e-9)
	assert.InDelta(t, -50.0, ChangePercent(50, 100), 1e-9)
}

func TestMovingAverageDefinition(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	ma := MovingAverage(closes, 3)

	assert.Len(t, ma, len(closes))
	// warm-up passes raw closes through
	assert.Equal(t, 1.0, ma[0])
	assert.Equal(t, 2.0, ma[1])
	assert.InDelta(t, 2.0, ma[2], 1e-12)
	assert.InDelta(t, 3.0, ma[3], 1e-12)
	assert.InDelta(t, 5.0, ma[5], 1e-12)
}

func TestMovingAverageMatchesNaiveMean(t *testing.T) {
	closes := []float64{142.1, 143.7, 141.2, 140.9, 144.3, 145.0, 143.2, 142.8, 146.1, 147.4}
	for _, period := range []int{1, 2, 4, 7, 10} {
		ma := MovingAverage(closes, period)
		for i := range closes {
			if i < period-1 {
				assert.Equal(t, closes[i], ma[i])
				continue
			}
			assert.InDelta(t, Mean(closes[i-period+1:i+1]), ma[i], 1e-9, "period %d index %d", period, i)
		}
	}
}

func TestMovingAverageEdgeCases(t *testing.T) {
	closes := []float64{1, 2, 3}

	assert.Equal(t, closes, MovingAverage(closes, 0))
	assert.Equal(t, closes, MovingAverage(closes, -4))
	// period longer than the series never leaves warm-up
	assert.Equal(t, closes, MovingAverage(closes, 25))
	assert.Empty(t, MovingAverage(nil, 7))

	// input untouched
	out := MovingAverage(closes, 0)
	out[0] = 99
	assert.Equal(t, 1.0, closes[0])
}
