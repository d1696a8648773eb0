package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/series"
)

// ChartPanel plots the live price history for the watched symbol with
// optional entry and sell-limit guide lines.
type ChartPanel struct {
	symbol string
	snap   series.Snapshot
	entry  model.Level
	sell   model.Level
}

func NewChartPanel() *ChartPanel {
	return &ChartPanel{}
}

// SetSeries swaps the plotted history, clearing any guide lines until
// the next frame arrives.
func (p *ChartPanel) SetSeries(symbol string, snap series.Snapshot) {
	p.symbol = symbol
	p.snap = snap
	p.entry = model.Level{}
	p.sell = model.Level{}
}

// SetFrame updates both the history and the guide lines from a poll result.
func (p *ChartPanel) SetFrame(symbol string, snap series.Snapshot, entry, sell model.Level) {
	p.symbol = symbol
	p.snap = snap
	p.entry = entry
	p.sell = sell
}

func (p *ChartPanel) Symbol() string { return p.symbol }

func (p *ChartPanel) Render(width, height int, active bool) string {
	style := sectionStyle.Width(width).Height(height)
	if active {
		style = activeSectionStyle.Width(width).Height(height)
	}

	headerText := "Live Watch"
	if p.symbol != "" {
		headerText = p.symbol
	}
	if len(p.snap.Data) > 0 {
		lo, hi := p.snap.Data[0], p.snap.Data[0]
		for _, v := range p.snap.Data {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		rightStats := fmt.Sprintf("Min: %.2f | Max: %.2f", lo, hi)
		spacerWidth := width - 4 - len(headerText) - len(rightStats)
		if spacerWidth > 0 {
			headerText = headerText + strings.Repeat(" ", spacerWidth) + rightStats
		}
	}
	title := chartTitleStyle.Render(headerText)

	var content string
	if len(p.snap.Data) > 0 {
		content = p.renderChart(width-4, height-4)
	} else if p.symbol == "" {
		content = helpStyle.Render("Select a trader to start watching")
	} else {
		content = helpStyle.Render("Waiting for data...")
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (p *ChartPanel) renderChart(chartWidth, chartHeight int) string {
	if chartWidth < 20 {
		chartWidth = 20
	}
	if chartHeight < 6 {
		chartHeight = 6
	}

	times := p.pointTimes()
	minT, maxT := times[0], times[len(times)-1]
	if !maxT.After(minT) {
		// a single point still needs a non-degenerate x range
		maxT = minT.Add(time.Second)
	}

	minY, maxY := p.snap.Data[0], p.snap.Data[0]
	for _, v := range p.snap.Data {
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}
	for _, lv := range []model.Level{p.entry, p.sell} {
		if lv.Show {
			if lv.Value < minY {
				minY = lv.Value
			}
			if lv.Value > maxY {
				maxY = lv.Value
			}
		}
	}
	if minY == maxY {
		// flat series still needs a visible band
		minY -= 1
		maxY += 1
	}

	tslc := timeserieslinechart.New(chartWidth, chartHeight,
		timeserieslinechart.WithYRange(minY, maxY),
		timeserieslinechart.WithTimeRange(minT, maxT),
	)
	tslc.SetStyle(priceLineStyle)
	for i, v := range p.snap.Data {
		tslc.Push(timeserieslinechart.TimePoint{Time: times[i], Value: v})
	}
	if p.entry.Show {
		tslc.SetDataSetStyle("entry", entryLineStyle)
		pushGuide(&tslc, "entry", minT, maxT, p.entry.Value)
	}
	if p.sell.Show {
		tslc.SetDataSetStyle("sell", sellLineStyle)
		pushGuide(&tslc, "sell", minT, maxT, p.sell.Value)
	}
	tslc.DrawBrailleAll()
	return tslc.View()
}

func pushGuide(tslc *timeserieslinechart.Model, name string, minT, maxT time.Time, value float64) {
	tslc.PushDataSet(name, timeserieslinechart.TimePoint{Time: minT, Value: value})
	tslc.PushDataSet(name, timeserieslinechart.TimePoint{Time: maxT, Value: value})
}

// pointTimes reconstructs wall-clock times from the snapshot's HH:MM:SS
// labels, tolerating a midnight rollover mid-series. Unparseable labels
// fall back to one-second spacing.
func (p *ChartPanel) pointTimes() []time.Time {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(p.snap.Data))
	var prev time.Time
	dayOffset := 0
	for i := range p.snap.Data {
		var label string
		if i < len(p.snap.Labels) {
			label = p.snap.Labels[i]
		}
		clock, err := time.Parse("15:04:05", label)
		if err != nil {
			if i == 0 {
				times[i] = base
			} else {
				times[i] = times[i-1].Add(time.Second)
			}
			prev = times[i]
			continue
		}
		t := base.AddDate(0, 0, dayOffset).Add(
			time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second)
		if !prev.IsZero() && t.Before(prev) {
			dayOffset++
			t = t.AddDate(0, 0, 1)
		}
		times[i] = t
		prev = t
	}
	return times
}
