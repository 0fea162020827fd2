package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ivanoskov/wallet/internal/analytics"
)

// Format is the output encoding of a rendered chart.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ChartGenerator renders aggregation results as raster or vector donut charts.
type ChartGenerator struct {
	size         int
	formatAmount func(float64) string
}

// NewChartGenerator creates a generator drawing size×size images. formatAmount
// renders slice values in legend labels; nil prints plain numbers.
func NewChartGenerator(size int, formatAmount func(float64) string) *ChartGenerator {
	if size <= 0 {
		size = 800
	}
	if formatAmount == nil {
		formatAmount = func(v float64) string { return fmt.Sprintf("%.2f", v) }
	}
	return &ChartGenerator{size: size, formatAmount: formatAmount}
}

// GenerateMonthlyDonut draws the category breakdown. An empty result is drawn
// as a single gray placeholder ring.
func (g *ChartGenerator) GenerateMonthlyDonut(res analytics.Result, title string, format Format) ([]byte, error) {
	values := g.donutValues(res)

	donut := chart.DonutChart{
		Title: title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:  g.size,
		Height: g.size,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	provider := chart.PNG
	if format == SVG {
		provider = chart.SVG
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := donut.Render(provider, buffer); err != nil {
		return nil, fmt.Errorf("failed to render monthly donut: %w", err)
	}
	return buffer.Bytes(), nil
}

func (g *ChartGenerator) donutValues(res analytics.Result) []chart.Value {
	if res.Empty() {
		return []chart.Value{{
			Label: "No expenses yet",
			Value: 1,
			Style: sliceStyle(PlaceholderColor),
		}}
	}

	values := make([]chart.Value, 0, len(res.Slices))
	for _, s := range res.Slices {
		if s.Value <= 0 {
			continue
		}
		percentage := s.Value / res.TotalBase * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", s.Label, g.formatAmount(s.Value), percentage),
			Value: s.Value,
			Style: sliceStyle(s.Color),
		})
	}
	return values
}

func sliceStyle(hex string) chart.Style {
	return chart.Style{
		FillColor:   drawing.ColorFromHex(hex),
		StrokeColor: chart.ColorWhite,
		StrokeWidth: 2,
		FontSize:    12,
		FontColor:   chart.ColorBlack,
	}
}
