// Package diagram renders photometric intensity distributions as SVG.
//
// Every renderer reads the model only through the Intensities interface, so
// the drawings follow the sampler's symmetry folding and interpolation rather
// than the raw table. Output is always a single <svg> root whose width and
// height equal the requested size.
package diagram

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/banshee-data/photometric/internal/photometry"
)

// Intensities is the read-only view of a luminaire the renderers draw from.
// *photometry.Luminaire satisfies it.
type Intensities interface {
	Sample(c, g float64) float64
	SampleNormalized(c, g float64) float64
	MaxIntensity() float64
	CAngles() []float64
	GAngles() []float64
	Symmetry() photometry.Symmetry
}

// Theme selects colours only. Layout never depends on it.
type Theme int

const (
	ThemeLight Theme = 0
	ThemeDark  Theme = 1
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return photometry.UnknownName
	}
}

// ParseTheme maps "light" or "dark" to a Theme.
func ParseTheme(s string) (Theme, error) {
	switch s {
	case "light", "":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	}
	return ThemeLight, fmt.Errorf("unknown theme %q (want light or dark)", s)
}

type palette struct {
	background color.RGBA
	foreground color.RGBA
	grid       color.RGBA
	text       color.RGBA
	curves     []color.RGBA
	ramp       []color.RGBA
}

var (
	lightPalette = palette{
		background: color.RGBA{255, 255, 255, 255},
		foreground: color.RGBA{40, 40, 40, 255},
		grid:       color.RGBA{220, 220, 220, 255},
		text:       color.RGBA{60, 60, 60, 255},
		curves: []color.RGBA{
			{220, 60, 60, 255},
			{60, 60, 220, 255},
			{40, 160, 80, 255},
			{230, 140, 20, 255},
		},
		ramp: viridis,
	}
	darkPalette = palette{
		background: color.RGBA{30, 30, 30, 255},
		foreground: color.RGBA{225, 225, 225, 255},
		grid:       color.RGBA{70, 70, 70, 255},
		text:       color.RGBA{200, 200, 200, 255},
		curves: []color.RGBA{
			{255, 110, 100, 255},
			{110, 150, 255, 255},
			{90, 210, 120, 255},
			{250, 190, 60, 255},
		},
		ramp: inferno,
	}
)

// Unknown themes draw as light.
func (t Theme) palette() palette {
	if t == ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// curveColors returns n distinct colours, the theme's own first.
func (p palette) curveColors(n int) []color.RGBA {
	if n <= len(p.curves) {
		return p.curves[:max(n, 0)]
	}
	return append(append([]color.RGBA(nil), p.curves...), generateColors(n - len(p.curves))...)
}

func rgb(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func fill(c color.RGBA) string   { return "fill:" + rgb(c) }
func stroke(c color.RGBA) string { return "fill:none;stroke:" + rgb(c) }

// canvas couples an svgo writer with the buffer it writes to.
type canvas struct {
	*svg.SVG
	buf  *bytes.Buffer
	w, h int
	pal  palette
}

// newCanvas starts a document of the requested size with a filled
// background. Non-positive dimensions are clamped to 1.
func newCanvas(width, height int, theme Theme, title string) *canvas {
	width, height = max(width, 1), max(height, 1)
	buf := &bytes.Buffer{}
	c := &canvas{SVG: svg.New(buf), buf: buf, w: width, h: height, pal: theme.palette()}
	c.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	c.Title(title)
	c.Rect(0, 0, width, height, fill(c.pal.background))
	return c
}

func (c *canvas) finish() string {
	c.End()
	return c.buf.String()
}

// fontSize scales label text with the smaller side of the canvas.
func (c *canvas) fontSize() int {
	return max(8, min(c.w, c.h)/40)
}

func (c *canvas) label(x, y int, s, anchor string) {
	c.Text(x, y, s, fmt.Sprintf("font-family:sans-serif;font-size:%dpx;text-anchor:%s;%s",
		c.fontSize(), anchor, fill(c.pal.text)))
}

func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// formatValue prints tick and legend values without trailing noise.
func formatValue(v float64) string {
	if math.Abs(v) >= 100 || v == math.Trunc(v) {
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// niceTicks returns evenly spaced round values covering 0..hi. The last tick
// is at least hi; an empty or non-positive range yields 0..1.
func niceTicks(hi float64, target int) []float64 {
	if !(hi > 0) || math.IsInf(hi, 0) {
		hi = 1
	}
	step := niceNumber(niceNumber(hi, false)/float64(max(target-1, 1)), true)
	top := math.Ceil(hi/step) * step
	ticks := make([]float64, 0, target+2)
	for k := 0; float64(k)*step <= top+step/2; k++ {
		ticks = append(ticks, float64(k)*step)
	}
	return ticks
}

func niceNumber(x float64, roundIt bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	if roundIt {
		switch {
		case f < 1.5:
			nf = 1
		case f < 3:
			nf = 2
		case f < 7:
			nf = 5
		default:
			nf = 10
		}
	} else {
		switch {
		case f <= 1:
			nf = 1
		case f <= 2:
			nf = 2
		case f <= 5:
			nf = 5
		default:
			nf = 10
		}
	}
	return nf * math.Pow(10, exp)
}

// CurveColors returns the n line colours a theme uses for per-plane curves.
func CurveColors(theme Theme, n int) []color.RGBA {
	return theme.palette().curveColors(n)
}

// RampColors returns the control points of the theme's heat-map ramp, low
// end first.
func RampColors(theme Theme) []color.RGBA {
	return append([]color.RGBA(nil), theme.palette().ramp...)
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ThemeColors returns the background and foreground colours of a theme.
func ThemeColors(theme Theme) (background, foreground color.RGBA) {
	p := theme.palette()
	return p.background, p.foreground
}
