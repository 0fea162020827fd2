package charts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ivanoskov/wallet/internal/analytics"
)

const (
	// startAngle puts the first sector at twelve o'clock.
	startAngle = -math.Pi / 2
	fullCircle = 2 * math.Pi
	// minSweep drops sectors too thin to draw.
	minSweep = 1e-4
	// ringGap keeps a full ring from collapsing into a zero-length arc.
	ringGap = 1e-3

	PlaceholderColor = "#E5E7EB"
)

// Geometry describes the ring. Angles are in radians.
type Geometry struct {
	Size        float64
	OuterRadius float64
	InnerRadius float64
	Gap         float64
}

// DefaultGeometry is a 220px ring, 34px thick, with a small gap between sectors.
func DefaultGeometry() Geometry {
	return GeometryForSize(220)
}

// GeometryForSize scales the default ring proportions to a square of size pixels.
func GeometryForSize(size float64) Geometry {
	outer := size/2 - size/22
	return Geometry{
		Size:        size,
		OuterRadius: outer,
		InnerRadius: outer * 0.66,
		Gap:         0.02,
	}
}

func (g Geometry) normalized() Geometry {
	if !(g.Size > 0) {
		return DefaultGeometry()
	}
	if !(g.InnerRadius > 0) || !(g.OuterRadius > g.InnerRadius) || g.OuterRadius > g.Size/2 {
		gap := g.Gap
		g = GeometryForSize(g.Size)
		if gap >= 0 {
			g.Gap = gap
		}
	}
	if !(g.Gap >= 0) {
		g.Gap = 0
	}
	return g
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is one closed ring sector, ready for an SVG path element.
type Path struct {
	D     string `json:"d"`
	Color string `json:"color"`
	Label string `json:"label,omitempty"`

	StartAngle float64 `json:"-"`
	EndAngle   float64 `json:"-"`
	// Sweep is the angle the sector is entitled to before gaps are cut out.
	Sweep float64 `json:"-"`
}

// Donut is the full ring. Paths are in drawing order, clockwise from the top.
type Donut struct {
	Size   float64 `json:"size"`
	Center Point   `json:"center"`
	Paths  []Path  `json:"paths"`
}

// Build lays the slices out clockwise from twelve o'clock, each sweeping its
// share of totalBase. The ring never wraps past its starting point. Empty
// input yields a single neutral placeholder ring.
func Build(slices []analytics.Slice, totalBase float64, g Geometry) Donut {
	g = g.normalized()
	c := g.Size / 2
	d := Donut{Size: g.Size, Center: Point{X: c, Y: c}, Paths: []Path{}}

	if len(slices) == 0 || !(totalBase > 0) || math.IsInf(totalBase, 0) {
		d.Paths = append(d.Paths, ring(g, PlaceholderColor, ""))
		return d
	}

	if len(slices) == 1 {
		if slices[0].Value > 0 {
			d.Paths = append(d.Paths, ring(g, slices[0].Color, slices[0].Label))
		} else {
			d.Paths = append(d.Paths, ring(g, PlaceholderColor, ""))
		}
		return d
	}

	end := startAngle + fullCircle
	angle := startAngle
	for _, s := range slices {
		sweep := fullCircle * s.Value / totalBase
		if !(sweep > 0) {
			sweep = 0
		}
		sweep = math.Min(sweep, fullCircle)
		sweep = math.Min(sweep, end-angle)

		a0, a1 := angle+g.Gap/2, angle+sweep-g.Gap/2
		if a1-a0 > minSweep {
			d.Paths = append(d.Paths, Path{
				D:          sectorPath(g, a0, a1),
				Color:      s.Color,
				Label:      s.Label,
				StartAngle: a0,
				EndAngle:   a1,
				Sweep:      sweep,
			})
		}
		angle += sweep
	}

	if len(d.Paths) == 0 {
		d.Paths = append(d.Paths, ring(g, PlaceholderColor, ""))
	}
	return d
}

func ring(g Geometry, color, label string) Path {
	a0, a1 := startAngle, startAngle+fullCircle-ringGap
	return Path{
		D:          sectorPath(g, a0, a1),
		Color:      color,
		Label:      label,
		StartAngle: a0,
		EndAngle:   a1,
		Sweep:      fullCircle,
	}
}

// sectorPath traces the outer arc clockwise, then the inner arc back.
func sectorPath(g Geometry, a0, a1 float64) string {
	c := g.Size / 2
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	ro, ri := g.OuterRadius, g.InnerRadius

	outerStart := polar(c, ro, a0)
	outerEnd := polar(c, ro, a1)
	innerEnd := polar(c, ri, a1)
	innerStart := polar(c, ri, a0)

	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s ", num(outerStart.X), num(outerStart.Y))
	fmt.Fprintf(&b, "A %s %s 0 %d 1 %s %s ", num(ro), num(ro), large, num(outerEnd.X), num(outerEnd.Y))
	fmt.Fprintf(&b, "L %s %s ", num(innerEnd.X), num(innerEnd.Y))
	fmt.Fprintf(&b, "A %s %s 0 %d 0 %s %s Z", num(ri), num(ri), large, num(innerStart.X), num(innerStart.Y))
	return b.String()
}

func polar(c, r, angle float64) Point {
	return Point{X: c + r*math.Cos(angle), Y: c + r*math.Sin(angle)}
}

func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SVG writes the donut as a standalone SVG document.
func (d Donut) SVG() []byte {
	var b strings.Builder
	size := num(d.Size)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`, size, size, size, size)
	b.WriteString("\n")
	for _, p := range d.Paths {
		if p.Label != "" {
			fmt.Fprintf(&b, `  <path d="%s" fill="%s"><title>%s</title></path>`, p.D, p.Color, escapeText(p.Label))
		} else {
			fmt.Fprintf(&b, `  <path d="%s" fill="%s"/>`, p.D, p.Color)
		}
		b.WriteString("\n")
	}
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
