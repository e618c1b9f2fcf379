package render

import (
	"errors"
	"math"

	"market-simulator/src/models"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptySeries     = errors.New("render: no candles to lay out")
	ErrInvalidViewport = errors.New("render: viewport must have positive width and height")
)

// Options tune the chart geometry. Zero fields fall back to DefaultOptions.
type Options struct {
	PricePadding  float64 // price units added above max high and below min low
	RightGutter   float64 // pixels reserved for price labels
	GapRatio      float64 // share of a column left empty between bodies
	VolumeRatio   float64 // share of the height used by volume bars
	GridRows      int
	MinBodyHeight float64
}

func DefaultOptions() Options {
	return Options{
		PricePadding:  2,
		RightGutter:   60,
		GapRatio:      0.3,
		VolumeRatio:   0.12,
		GridRows:      8,
		MinBodyHeight: 1,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PricePadding <= 0 {
		o.PricePadding = def.PricePadding
	}
	if o.RightGutter <= 0 {
		o.RightGutter = def.RightGutter
	}
	if o.GapRatio <= 0 || o.GapRatio >= 1 {
		o.GapRatio = def.GapRatio
	}
	if o.VolumeRatio <= 0 || o.VolumeRatio > 1 {
		o.VolumeRatio = def.VolumeRatio
	}
	if o.GridRows <= 0 {
		o.GridRows = def.GridRows
	}
	if o.MinBodyHeight <= 0 {
		o.MinBodyHeight = def.MinBodyHeight
	}
	return o
}

// -----------------------------------------------------------------------------

// ComputeLayout maps a chart snapshot onto a width x height pixel frame.
// Nothing is cached: every call derives the geometry from the snapshot alone.
func ComputeLayout(snap models.MChartSnapshot, width, height float64, opts Options) (models.MChartLayout, error) {
	if len(snap.Candles) == 0 {
		return models.MChartLayout{}, ErrEmptySeries
	}
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return models.MChartLayout{}, ErrInvalidViewport
	}
	opts = opts.withDefaults()

	// 1. Price axis
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	maxVolume := 0.0
	for _, c := range snap.Candles {
		minPrice = math.Min(minPrice, c.Low)
		maxPrice = math.Max(maxPrice, c.High)
		maxVolume = math.Max(maxVolume, c.Volume)
	}
	minPrice -= opts.PricePadding
	maxPrice += opts.PricePadding
	priceRange := maxPrice - minPrice

	y := func(price float64) float64 {
		return height - (price-minPrice)/priceRange*height
	}

	// 2. Columns
	chartWidth := math.Max(width-opts.RightGutter, 1)
	column := chartWidth / float64(len(snap.Candles))
	gap := column * opts.GapRatio
	bodyWidth := column - gap
	volumeSpan := height * opts.VolumeRatio

	layout := models.MChartLayout{
		Width:       width,
		Height:      height,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		ColumnWidth: column,
		Gap:         gap,
		Candles:     make([]models.MCandleGeometry, len(snap.Candles)),
	}

	for i, c := range snap.Candles {
		x := float64(i)*column + gap/2
		bodyTop := y(math.Max(c.Open, c.Close))
		bodyBottom := y(math.Min(c.Open, c.Close))

		volumeHeight := 0.0
		if maxVolume > 0 {
			volumeHeight = c.Volume / maxVolume * volumeSpan
		}

		layout.Candles[i] = models.MCandleGeometry{
			X:            x,
			Width:        bodyWidth,
			WickX:        x + bodyWidth/2,
			WickTop:      y(c.High),
			WickBottom:   y(c.Low),
			BodyTop:      bodyTop,
			BodyHeight:   math.Max(bodyBottom-bodyTop, opts.MinBodyHeight),
			VolumeTop:    height - volumeHeight,
			VolumeHeight: volumeHeight,
			Bullish:      c.Close >= c.Open,
		}
	}

	// 3. Moving averages at column centers
	polyline := func(values []float64) []models.MPoint {
		points := make([]models.MPoint, 0, len(values))
		for i, v := range values {
			points = append(points, models.MPoint{X: float64(i)*column + column/2, Y: y(v)})
		}
		return points
	}
	layout.MAFast = polyline(snap.MAFast)
	layout.MASlow = polyline(snap.MASlow)

	// 4. Last price marker
	last := snap.Candles[len(snap.Candles)-1]
	layout.LastPriceY = y(last.Close)
	layout.LastBullish = last.Close >= last.Open

	// 5. Price labels, top to bottom
	layout.PriceLabels = make([]models.MPriceLabel, opts.GridRows+1)
	for i := 0; i <= opts.GridRows; i++ {
		price := maxPrice - priceRange/float64(opts.GridRows)*float64(i)
		layout.PriceLabels[i] = models.MPriceLabel{
			Y:     height / float64(opts.GridRows) * float64(i),
			Price: decimal.NewFromFloat(price).StringFixed(2),
		}
	}

	return layout, nil
}
