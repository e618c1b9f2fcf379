package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/container/grid"
	"github.com/mum4k/termdash/keyboard"
	"github.com/mum4k/termdash/linestyle"
	"github.com/mum4k/termdash/terminal/tcell"
	"github.com/mum4k/termdash/terminal/terminalapi"
	"github.com/mum4k/termdash/widgets/barchart"
	"github.com/mum4k/termdash/widgets/linechart"
	"github.com/mum4k/termdash/widgets/text"
	"github.com/shopspring/decimal"
)

const (
	redrawInterval = 250 * time.Millisecond
	bookDepth      = 8
	volumeBars     = 20
)

// Line is one colored row of a text panel
type Line struct {
	Text  string
	Color cell.Color
}

type update struct {
	channel string
	payload interface{}
}

// -----------------------------------------------------------------------------

// TerminalDashboard renders the four panels in a terminal. It is a runner
// publisher: snapshots arrive through Broadcast.
type TerminalDashboard struct {
	Logger *logger.Logger

	chart    *linechart.LineChart
	volume   *barchart.BarChart
	book     *text.Text
	activity *text.Text
	stats    *text.Text
	header   *text.Text

	updateChan chan update
}

func NewTerminalDashboard(log *logger.Logger) *TerminalDashboard {
	return &TerminalDashboard{
		Logger:     log,
		updateChan: make(chan update, 100),
	}
}

// -----------------------------------------------------------------------------

func (td *TerminalDashboard) InitWidgets() error {
	var err error

	td.chart, err = linechart.New(
		linechart.AxesCellOpts(cell.FgColor(cell.ColorNumber(240))),
		linechart.YLabelCellOpts(cell.FgColor(cell.ColorGreen)),
		linechart.XLabelCellOpts(cell.FgColor(cell.ColorGreen)),
	)
	if err != nil {
		return fmt.Errorf("failed to create line chart: %v", err)
	}

	td.volume, err = barchart.New(
		barchart.BarColors([]cell.Color{cell.ColorNumber(33)}),
		barchart.BarGap(0),
	)
	if err != nil {
		return fmt.Errorf("failed to create volume chart: %v", err)
	}

	for _, w := range []**text.Text{&td.book, &td.stats, &td.header} {
		if *w, err = text.New(); err != nil {
			return fmt.Errorf("failed to create text widget: %v", err)
		}
	}

	td.activity, err = text.New(text.RollContent(), text.WrapAtWords())
	if err != nil {
		return fmt.Errorf("failed to create activity widget: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Broadcast queues a snapshot for the render loop without blocking the caller
func (td *TerminalDashboard) Broadcast(channel string, payload interface{}) {
	select {
	case td.updateChan <- update{channel: channel, payload: payload}:
	default:
		// The next snapshot supersedes this one
		td.Logger.Debug("Render queue full, dropping %s snapshot", channel)
	}
}

// -----------------------------------------------------------------------------

func (td *TerminalDashboard) StartUpdateListener(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-td.updateChan:
				if err := td.apply(u); err != nil {
					td.Logger.Debug("Render %s failed: %v", u.channel, err)
				}
			}
		}
	}()
}

// -----------------------------------------------------------------------------

func (td *TerminalDashboard) apply(u update) error {
	switch p := u.payload.(type) {
	case models.MOrderBookSnapshot:
		return writeLines(td.book, BookLines(p, bookDepth))
	case models.MChartSnapshot:
		return td.renderChart(p)
	case models.MActivitySnapshot:
		return writeLines(td.activity, ActivityLines(p))
	case models.MNetworkStats:
		return writeLines(td.stats, StatsLines(p))
	}
	return fmt.Errorf("unexpected payload %T", u.payload)
}

// -----------------------------------------------------------------------------

func (td *TerminalDashboard) renderChart(snap models.MChartSnapshot) error {
	closes := make([]float64, len(snap.Candles))
	for i, c := range snap.Candles {
		closes[i] = c.Close
	}

	if err := td.chart.Series("close", closes, linechart.SeriesCellOpts(cell.FgColor(cell.ColorWhite))); err != nil {
		return err
	}
	if err := td.chart.Series("ma_fast", snap.MAFast, linechart.SeriesCellOpts(cell.FgColor(cell.ColorYellow))); err != nil {
		return err
	}
	if err := td.chart.Series("ma_slow", snap.MASlow, linechart.SeriesCellOpts(cell.FgColor(cell.ColorMagenta))); err != nil {
		return err
	}

	values, peak := VolumeBars(snap.Candles, volumeBars)
	if len(values) > 0 {
		if err := td.volume.Values(values, peak); err != nil {
			return err
		}
	}

	return writeLines(td.header, []Line{HeaderLine(snap)})
}

// -----------------------------------------------------------------------------
// Panel formatting
// -----------------------------------------------------------------------------

// BookLines lists asks (worst to best) above the mid row and bids below
func BookLines(snap models.MOrderBookSnapshot, depth int) []Line {
	asks := snap.Asks
	if len(asks) > depth {
		asks = asks[:depth]
	}
	bids := snap.Bids
	if len(bids) > depth {
		bids = bids[:depth]
	}

	lines := make([]Line, 0, len(asks)+len(bids)+2)
	lines = append(lines, Line{Text: fmt.Sprintf("%10s %10s %10s", "PRICE", "SIZE", "TOTAL"), Color: cell.ColorNumber(244)})

	for i := len(asks) - 1; i >= 0; i-- {
		lines = append(lines, levelLine(asks[i], cell.ColorRed))
	}

	lines = append(lines, Line{
		Text:  fmt.Sprintf("%10s  spread %s", fixed(snap.MidPrice), fixed(snap.Spread)),
		Color: cell.ColorWhite,
	})

	for _, lvl := range bids {
		lines = append(lines, levelLine(lvl, cell.ColorGreen))
	}
	return lines
}

func levelLine(lvl models.MPriceLevel, color cell.Color) Line {
	marker := " "
	if lvl.Flash {
		marker = "*"
		color = cell.ColorYellow
	}
	return Line{
		Text:  fmt.Sprintf("%10s %10s %10s%s", fixed(lvl.Price), fixed(lvl.Size), fixed(lvl.Total), marker),
		Color: color,
	}
}

// -----------------------------------------------------------------------------

func ActivityLines(snap models.MActivitySnapshot) []Line {
	lines := make([]Line, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		lines = append(lines, Line{Text: fmt.Sprintf("[%s] %s", e.Time, e.Text), Color: cell.ColorGreen})
	}
	return lines
}

// -----------------------------------------------------------------------------

func StatsLines(stats models.MNetworkStats) []Line {
	indicator := Line{Text: "● DEMO", Color: cell.ColorYellow}
	if stats.IsLive {
		indicator = Line{Text: "● LIVE", Color: cell.ColorGreen}
	}
	if stats.State != "" && !stats.IsLive && stats.State != "DEMO" {
		indicator.Text = "● " + stats.State
	}

	return []Line{
		indicator,
		{Text: fmt.Sprintf("TPS     %d", stats.TPS), Color: cell.ColorWhite},
		{Text: fmt.Sprintf("Block   #%d", stats.BlockHeight), Color: cell.ColorWhite},
		{Text: fmt.Sprintf("Gas     %s gwei", stats.GasPrice), Color: cell.ColorWhite},
		{Text: fmt.Sprintf("Time    %s", stats.BlockTime), Color: cell.ColorWhite},
	}
}

// -----------------------------------------------------------------------------

func HeaderLine(snap models.MChartSnapshot) Line {
	sign := "+"
	color := cell.ColorGreen
	if snap.ChangePercent < 0 {
		sign = ""
		color = cell.ColorRed
	}
	return Line{
		Text:  fmt.Sprintf("%s  %s  %s%s%%", snap.Symbol, fixed(snap.LastPrice), sign, fixed(snap.ChangePercent)),
		Color: color,
	}
}

// -----------------------------------------------------------------------------

// VolumeBars scales the last n volumes to integers for the bar chart
func VolumeBars(candles []models.MCandle, n int) ([]int, int) {
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	values := make([]int, len(candles))
	peak := 1
	for i, c := range candles {
		values[i] = int(c.Volume)
		if values[i] > peak {
			peak = values[i]
		}
	}
	return values, peak
}

// -----------------------------------------------------------------------------

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func writeLines(t *text.Text, lines []Line) error {
	t.Reset()
	var b strings.Builder
	for i, l := range lines {
		b.Reset()
		b.WriteString(l.Text)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
		if err := t.Write(b.String(), text.WriteCellOpts(cell.FgColor(l.Color))); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Layout
// -----------------------------------------------------------------------------

func CreateGridLayout(td *TerminalDashboard) ([]container.Option, error) {
	builder := grid.New()

	builder.Add(
		grid.RowHeightPerc(60,
			grid.ColWidthPerc(70,
				grid.RowHeightPerc(15,
					grid.Widget(td.header,
						container.Border(linestyle.Light),
						container.BorderTitle(" Market "),
					),
				),
				grid.RowHeightPerc(60,
					grid.Widget(td.chart,
						container.Border(linestyle.Light),
						container.BorderTitle(" Price / MA "),
					),
				),
				grid.RowHeightPerc(25,
					grid.Widget(td.volume,
						container.Border(linestyle.Light),
						container.BorderTitle(" Volume "),
					),
				),
			),
			grid.ColWidthPerc(30,
				grid.Widget(td.book,
					container.Border(linestyle.Light),
					container.BorderTitle(" Order Book "),
				),
			),
		),
		grid.RowHeightPerc(40,
			grid.ColWidthPerc(70,
				grid.Widget(td.activity,
					container.Border(linestyle.Light),
					container.BorderTitle(" Activity "),
				),
			),
			grid.ColWidthPerc(30,
				grid.Widget(td.stats,
					container.Border(linestyle.Light),
					container.BorderTitle(" Network "),
				),
			),
		),
	)

	return builder.Build()
}

// -----------------------------------------------------------------------------

// RunDashboard blocks until ctx is done or the user presses q / Esc
func RunDashboard(ctx context.Context, td *TerminalDashboard) error {
	t, err := tcell.New(tcell.ColorMode(terminalapi.ColorMode256))
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	defer t.Close()

	gridOpts, err := CreateGridLayout(td)
	if err != nil {
		return fmt.Errorf("failed to build grid layout: %v", err)
	}

	c, err := container.New(t, gridOpts...)
	if err != nil {
		return fmt.Errorf("failed to create root container: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quitter := func(k *terminalapi.Keyboard) {
		if k.Key == 'q' || k.Key == 'Q' || k.Key == keyboard.KeyEsc {
			cancel()
		}
	}

	return termdash.Run(ctx, t, c, termdash.KeyboardSubscriber(quitter), termdash.RedrawInterval(redrawInterval))
}
