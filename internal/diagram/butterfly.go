package diagram

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/photometric/internal/photometry"
)

const (
	butterflyStep     = 5.0
	maxButterflyWings = 36
	// Rotationally symmetric luminaires get evenly spaced wings.
	verticalAxisWings = 12
)

type wing struct {
	c      float64
	xs, ys []int
	depth  float64
}

// Butterfly draws a pseudo-3D view of the intensity solid: every C-plane of
// the symmetry-expanded circle becomes a wing bounded by its half polar
// curve. The solid is tipped about the horizontal axis by tiltDegrees before
// projection and wings are painted back to front.
func Butterfly(l Intensities, width, height int, theme Theme, tiltDegrees float64) string {
	cv := newCanvas(width, height, theme, "Butterfly intensity diagram")
	fs := cv.fontSize()

	if math.IsNaN(tiltDegrees) || math.IsInf(tiltDegrees, 0) {
		tiltDegrees = 0
	}
	tilt := tiltDegrees * math.Pi / 180
	cosT, sinT := math.Cos(tilt), math.Sin(tilt)

	cx, cy := float64(cv.w)/2, float64(cv.h)/2
	radius := math.Max(math.Min(float64(cv.w), float64(cv.h))/2-2*float64(fs), 1)

	peak := l.MaxIntensity()
	scale := 0.0
	if peak > 0 {
		scale = radius / peak
	}

	cv.Gstyle(stroke(cv.pal.grid))
	ry := math.Abs(sinT)
	for _, k := range []float64{0.25, 0.5, 0.75, 1} {
		cv.Ellipse(round(cx), round(cy), round(k*radius), max(round(k*radius*ry), 1))
	}
	cv.Gend()

	project := func(x, y, z float64) (sx, sy, depth float64) {
		yr := y*cosT - z*sinT
		zr := y*sinT + z*cosT
		return cx + x, cy - zr, yr
	}

	planes := wingPlanes(l)
	wings := make([]wing, 0, len(planes))
	for _, c := range planes {
		cr := c * math.Pi / 180
		w := wing{c: c}
		ox, oy, _ := project(0, 0, 0)
		w.xs, w.ys = append(w.xs, round(ox)), append(w.ys, round(oy))
		n := 0
		for g := 0.0; g <= 180+1e-9; g += butterflyStep {
			gr := g * math.Pi / 180
			r := l.Sample(c, g) * scale
			x := r * math.Sin(gr) * math.Cos(cr)
			y := r * math.Sin(gr) * math.Sin(cr)
			z := -r * math.Cos(gr)
			sx, sy, d := project(x, y, z)
			w.xs, w.ys = append(w.xs, round(sx)), append(w.ys, round(sy))
			w.depth += d
			n++
		}
		w.depth /= float64(n)
		wings = append(wings, w)
	}
	// Farthest first; ties keep the C order.
	sort.SliceStable(wings, func(i, j int) bool { return wings[i].depth > wings[j].depth })

	colors := cv.pal.curveColors(len(cv.pal.curves))
	for _, w := range wings {
		col := colors[0]
		if math.Mod(w.c, 180) != 0 {
			col = colors[1]
		}
		cv.Polygon(w.xs, w.ys, fmt.Sprintf("%s;fill-opacity:0.45;stroke:%s;stroke-width:1",
			fill(col), rgb(cv.pal.foreground)))
	}

	cv.label(fs/2, fs+2, fmt.Sprintf("tilt %s deg", formatValue(tiltDegrees)), "start")
	cv.label(cv.w-fs/2, cv.h-fs/2, fmt.Sprintf("Imax %s cd/klm", formatValue(peak)), "end")
	return cv.finish()
}

// wingPlanes returns the C angles to draw as wings, thinned evenly when the
// full circle holds more than maxButterflyWings planes.
func wingPlanes(l Intensities) []float64 {
	var full []float64
	if l.Symmetry() == photometry.SymmetryVerticalAxis {
		for i := 0; i < verticalAxisWings; i++ {
			full = append(full, float64(i)*360/verticalAxisWings)
		}
	} else {
		full = photometry.FullCircleAngles(l.Symmetry(), l.CAngles())
	}
	if len(full) <= maxButterflyWings {
		return full
	}
	stride := int(math.Ceil(float64(len(full)) / maxButterflyWings))
	out := make([]float64, 0, maxButterflyWings)
	for i := 0; i < len(full); i += stride {
		out = append(out, full[i])
	}
	return out
}
