package diagram

import (
	"fmt"
	"math"

	"github.com/banshee-data/photometric/internal/photometry"
)

const polarStep = 2.5

// planePair is a C-plane and its opposite, drawn as one closed curve with the
// first plane on the right half of the diagram.
type planePair struct {
	right, left float64
	name        string
}

// Polar draws the classic polar intensity diagram: nadir points down, the
// C0-C180 curve always, and C90-C270 unless the luminaire is rotationally
// symmetric.
func Polar(l Intensities, width, height int, theme Theme) string {
	cv := newCanvas(width, height, theme, "Polar intensity diagram")
	fs := cv.fontSize()

	cx, cy := float64(cv.w)/2, float64(cv.h)/2
	radius := math.Max(math.Min(float64(cv.w), float64(cv.h))/2-2.5*float64(fs), 1)

	ticks := niceTicks(l.MaxIntensity(), 5)
	scaleMax := ticks[len(ticks)-1]

	cv.Gstyle(stroke(cv.pal.grid))
	for _, v := range ticks[1:] {
		cv.Circle(round(cx), round(cy), round(radius*v/scaleMax))
	}
	for a := 0.0; a < 360; a += 30 {
		x, y := polarPoint(cx, cy, radius, a)
		cv.Line(round(cx), round(cy), round(x), round(y))
	}
	cv.Gend()

	for _, v := range ticks[1:] {
		r := radius * v / scaleMax
		cv.label(round(cx+3), round(cy-r-2), formatValue(v), "start")
	}

	pairs := []planePair{{right: 0, left: 180, name: "C0-C180"}}
	if l.Symmetry() != photometry.SymmetryVerticalAxis {
		pairs = append(pairs, planePair{right: 90, left: 270, name: "C90-C270"})
	}
	colors := cv.pal.curveColors(len(pairs))
	for i, p := range pairs {
		xs, ys := pairCurve(l, p, cx, cy, radius/scaleMax)
		cv.Polygon(xs, ys, stroke(colors[i])+";stroke-width:2;stroke-linejoin:round")
	}

	for i, p := range pairs {
		y := fs + i*(fs+4)
		cv.Line(fs/2, y-fs/3, fs/2+2*fs, y-fs/3, stroke(colors[i])+";stroke-width:2")
		cv.label(fs*3, y, p.name, "start")
	}
	cv.label(cv.w-fs/2, cv.h-fs/2, fmt.Sprintf("Imax %s cd/klm", formatValue(l.MaxIntensity())), "end")
	return cv.finish()
}

// polarPoint converts an angle measured from nadir, clockwise towards the
// right, into canvas coordinates.
func polarPoint(cx, cy, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return cx + r*math.Sin(rad), cy + r*math.Cos(rad)
}

// pairCurve samples the right plane from nadir to zenith and then the left
// plane back down, giving one closed outline.
func pairCurve(l Intensities, p planePair, cx, cy, scale float64) (xs, ys []int) {
	n := int(180/polarStep) + 1
	xs = make([]int, 0, 2*n)
	ys = make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		g := float64(i) * polarStep
		x, y := polarPoint(cx, cy, l.Sample(p.right, g)*scale, g)
		xs, ys = append(xs, round(x)), append(ys, round(y))
	}
	for i := n - 1; i >= 0; i-- {
		g := float64(i) * polarStep
		x, y := polarPoint(cx, cy, l.Sample(p.left, g)*scale, -g)
		xs, ys = append(xs, round(x)), append(ys, round(y))
	}
	return xs, ys
}
