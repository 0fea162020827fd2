package charts

import (
	"bytes"
	"testing"

	"github.com/ivanoskov/wallet/internal/analytics"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func sampleResult() analytics.Result {
	return analytics.Result{
		Slices: []analytics.Slice{
			{Label: "Food", Value: 100, Color: analytics.ColorFor("Food")},
			{Label: "Transport", Value: 50, Color: analytics.ColorFor("Transport")},
			{Label: analytics.LabelRemaining, Value: 350, Color: analytics.NeutralGray},
		},
		TotalBase: 500,
	}
}

func TestGenerateMonthlyDonut_PNG(t *testing.T) {
	g := NewChartGenerator(400, nil)
	img, err := g.GenerateMonthlyDonut(sampleResult(), "Last 30 days", PNG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("output is not a PNG (%d bytes)", len(img))
	}
}

func TestGenerateMonthlyDonut_SVG(t *testing.T) {
	g := NewChartGenerator(400, func(v float64) string { return "Rs " + num(v) })
	img, err := g.GenerateMonthlyDonut(sampleResult(), "Last 30 days", SVG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.Contains(img, []byte("<svg")) {
		t.Fatalf("output is not an SVG document")
	}
}

func TestGenerateMonthlyDonut_EmptyRendersPlaceholder(t *testing.T) {
	g := NewChartGenerator(0, nil)
	img, err := g.GenerateMonthlyDonut(analytics.Result{Slices: []analytics.Slice{}}, "", PNG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestDonutValues_Labels(t *testing.T) {
	g := NewChartGenerator(400, func(v float64) string { return "$" + num(v) })
	values := g.donutValues(sampleResult())
	if len(values) != 3 {
		t.Fatalf("got %d values", len(values))
	}
	if values[0].Label != "Food: $100 (20.0%)" {
		t.Fatalf("label = %q", values[0].Label)
	}
	if values[2].Style.FillColor.R != 0x9C {
		t.Fatalf("overflow fill = %+v", values[2].Style.FillColor)
	}
}
