package diagram

import (
	"fmt"
	"math"

	"github.com/banshee-data/photometric/internal/photometry"
)

// DefaultMaxCurves caps the Cartesian plot when the caller passes zero.
const DefaultMaxCurves = 8

// Cartesian plots intensity against gamma, one line per stored C-plane,
// lowest C angles first and at most maxCurves of them.
func Cartesian(l Intensities, width, height int, theme Theme, maxCurves int) string {
	if maxCurves <= 0 {
		maxCurves = DefaultMaxCurves
	}
	cv := newCanvas(width, height, theme, "Cartesian intensity diagram")
	fs := cv.fontSize()

	left, right := 4*fs, fs
	top, bottom := 2*fs, 3*fs
	pw := max(cv.w-left-right, 1)
	ph := max(cv.h-top-bottom, 1)

	gMax := GammaExtent(l)
	xStep := 30.0
	if gMax == 90 {
		xStep = 15
	}

	yTicks := niceTicks(l.MaxIntensity(), 6)
	yMax := yTicks[len(yTicks)-1]

	px := func(g float64) int { return left + round(g/gMax*float64(pw)) }
	py := func(v float64) int { return top + ph - round(v/yMax*float64(ph)) }

	cv.Gstyle(stroke(cv.pal.grid))
	for _, v := range yTicks {
		cv.Line(left, py(v), left+pw, py(v))
	}
	for g := 0.0; g <= gMax; g += xStep {
		cv.Line(px(g), top, px(g), top+ph)
	}
	cv.Gend()

	cv.Line(left, top, left, top+ph, stroke(cv.pal.foreground))
	cv.Line(left, top+ph, left+pw, top+ph, stroke(cv.pal.foreground))
	for _, v := range yTicks {
		cv.label(left-fs/2, py(v)+fs/3, formatValue(v), "end")
	}
	for g := 0.0; g <= gMax; g += xStep {
		cv.label(px(g), top+ph+fs+2, formatValue(g), "middle")
	}
	cv.label(left+pw/2, cv.h-fs/2, "gamma (deg)", "middle")
	cv.label(fs/2, top-fs/2, "cd/klm", "start")

	planes := CurvePlanes(l, maxCurves)
	colors := cv.pal.curveColors(len(planes))
	steps := int(gMax)
	for i, c := range planes {
		xs := make([]int, 0, steps+1)
		ys := make([]int, 0, steps+1)
		for s := 0; s <= steps; s++ {
			g := float64(s)
			xs = append(xs, px(g))
			ys = append(ys, py(l.Sample(c, g)))
		}
		cv.Polyline(xs, ys, stroke(colors[i])+";stroke-width:2")
	}

	for i, c := range planes {
		y := top + fs + i*(fs+4)
		x := left + pw - 5*fs
		cv.Line(x, y-fs/3, x+fs*3/2, y-fs/3, stroke(colors[i])+";stroke-width:2")
		cv.label(x+2*fs, y, fmt.Sprintf("C%s", formatValue(c)), "start")
	}
	return cv.finish()
}

// GammaExtent is the gamma range a curve plot spans: 90 degrees when the
// measurement stops at the horizontal, 180 otherwise.
func GammaExtent(l Intensities) float64 {
	if g := l.GAngles(); len(g) > 0 && g[len(g)-1] <= 90 {
		return 90
	}
	return 180
}

// CurvePlanes picks the stored C angles to plot. Duplicate angles are drawn
// once. A non-positive limit means DefaultMaxCurves.
func CurvePlanes(l Intensities, limit int) []float64 {
	if limit <= 0 {
		limit = DefaultMaxCurves
	}
	if l.Symmetry() == photometry.SymmetryVerticalAxis {
		return []float64{0}
	}
	out := make([]float64, 0, limit)
	for _, c := range l.CAngles() {
		if len(out) == limit {
			break
		}
		if len(out) > 0 && math.Abs(out[len(out)-1]-c) < 1e-9 {
			continue
		}
		out = append(out, c)
	}
	return out
}
