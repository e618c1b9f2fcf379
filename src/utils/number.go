package utils

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Round2 rounds half away from zero to 2 decimals (display prices, sizes)
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// -----------------------------------------------------------------------------

// Uniform returns a value in [lo, hi)
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// -----------------------------------------------------------------------------

// Clamp bounds v to [lo, hi]
func Clamp[T int | int64 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
