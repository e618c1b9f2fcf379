package core

// -----------------------------------------------------------------------------

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// -----------------------------------------------------------------------------

// ChangePercent returns (current - previous) / previous expressed in percent.
func ChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}

// -----------------------------------------------------------------------------

// MovingAverage computes a simple moving average that keeps the input length.
// Index i < period-1 carries closes[i] through; every later index holds the
// mean of the trailing period values. A non-positive period copies the input.
func MovingAverage(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 {
		copy(out, closes)
		return out
	}

	// Running sum over the window
	sum := 0.0
	for i, v := range closes {
		sum += v
		if i >= period {
			sum -= closes[i-period]
		}

		if i < period-1 {
			out[i] = v
			continue
		}
		out[i] = sum / float64(period)
	}

	return out
}
