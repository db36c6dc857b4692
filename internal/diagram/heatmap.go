package diagram

import (
	"fmt"
)

const (
	heatmapStep  = 5.0
	heatmapCols  = int(360/heatmapStep) + 1
	heatmapRows  = int(180/heatmapStep) + 1
	legendStrips = 32
)

// Heatmap draws normalized intensity over C 0..360 (x) and gamma 0..180 (y),
// sampled every 5 degrees, with a colour legend on the right.
func Heatmap(l Intensities, width, height int, theme Theme) string {
	cv := newCanvas(width, height, theme, "Intensity heatmap")
	fs := cv.fontSize()

	left, top, bottom := 3*fs, fs, 3*fs
	legendW := 5 * fs
	pw := max(cv.w-left-legendW-fs, 1)
	ph := max(cv.h-top-bottom, 1)

	// Cell edges are computed per index so adjacent cells share a border.
	colEdge := func(i int) int { return left + i*pw/heatmapCols }
	rowEdge := func(j int) int { return top + j*ph/heatmapRows }

	ramp := cv.pal.ramp
	cv.Group(`shape-rendering="crispEdges"`)
	for j := 0; j < heatmapRows; j++ {
		g := float64(j) * heatmapStep
		y0, y1 := rowEdge(j), rowEdge(j+1)
		for i := 0; i < heatmapCols; i++ {
			c := float64(i) * heatmapStep
			x0, x1 := colEdge(i), colEdge(i+1)
			if x1 <= x0 || y1 <= y0 {
				continue
			}
			cv.Rect(x0, y0, x1-x0, y1-y0, fill(rampColor(ramp, l.SampleNormalized(c, g))))
		}
	}
	cv.Gend()
	cv.Rect(left, top, pw, ph, stroke(cv.pal.foreground))

	for c := 0.0; c <= 360; c += 90 {
		i := int(c / heatmapStep)
		x := (colEdge(i) + colEdge(i+1)) / 2
		cv.Line(x, top+ph, x, top+ph+fs/3, stroke(cv.pal.foreground))
		cv.label(x, top+ph+fs+fs/3, fmt.Sprintf("C%s", formatValue(c)), "middle")
	}
	for g := 0.0; g <= 180; g += 45 {
		j := int(g / heatmapStep)
		y := (rowEdge(j) + rowEdge(j+1)) / 2
		cv.Line(left-fs/3, y, left, y, stroke(cv.pal.foreground))
		cv.label(left-fs/2, y+fs/3, formatValue(g), "end")
	}
	cv.label(left+pw/2, cv.h-fs/3, "C angle (deg) / gamma (deg)", "middle")

	// Legend: maximum at the top.
	lx := left + pw + fs
	lw := max(fs, 1)
	for k := 0; k < legendStrips; k++ {
		y0 := top + k*ph/legendStrips
		y1 := top + (k+1)*ph/legendStrips
		if y1 <= y0 {
			continue
		}
		v := 1 - (float64(k)+0.5)/legendStrips
		cv.Rect(lx, y0, lw, y1-y0, fill(rampColor(ramp, v)))
	}
	cv.Rect(lx, top, lw, ph, stroke(cv.pal.foreground))
	cv.label(lx+lw+2, top+fs, formatValue(l.MaxIntensity()), "start")
	cv.label(lx+lw+2, top+ph, "0", "start")
	return cv.finish()
}
