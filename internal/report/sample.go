// Package report turns a luminaire into documents for people rather than
// programs: an interactive HTML page built on go-echarts and static curve
// plots written with gonum/plot.
package report

import (
	"math"

	"github.com/banshee-data/photometric/internal/diagram"
)

// DefaultStep is the sampling step in degrees used when Options.Step is not
// positive.
const DefaultStep = 5.0

// Options shared by the HTML and plot outputs.
type Options struct {
	Title     string
	Theme     diagram.Theme
	MaxCurves int
	// Step is the sampling step in degrees along both C and gamma.
	Step float64
}

func (o Options) step() float64 {
	if o.Step <= 0 || math.IsNaN(o.Step) || math.IsInf(o.Step, 0) {
		return DefaultStep
	}
	return math.Min(o.Step, 90)
}

// Curve is one C-plane sampled at Curves.Gammas.
type Curve struct {
	C      float64
	Values []float64
}

// Curves holds intensity-versus-gamma samples for the planes a curve plot
// shows, in cd/klm.
type Curves struct {
	Gammas []float64
	Curves []Curve
}

// Grid holds a full-circle intensity sample; Values[i][j] is at Cs[i],
// Gammas[j].
type Grid struct {
	Cs     []float64
	Gammas []float64
	Values [][]float64
}

// steps returns lo, lo+step, ... up to and including hi.
func steps(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step + 1e-9))
	out := make([]float64, 0, n+2)
	for k := 0; k <= n; k++ {
		out = append(out, lo+float64(k)*step)
	}
	if last := out[len(out)-1]; hi-last > 1e-9 {
		out = append(out, hi)
	}
	return out
}

// SampleCurves samples the planes diagram.CurvePlanes picks along the gamma
// range the Cartesian diagram uses.
func SampleCurves(l diagram.Intensities, opts Options) Curves {
	gs := steps(0, diagram.GammaExtent(l), opts.step())
	out := Curves{Gammas: gs}
	for _, c := range diagram.CurvePlanes(l, opts.MaxCurves) {
		vals := make([]float64, len(gs))
		for j, g := range gs {
			vals[j] = l.Sample(c, g)
		}
		out.Curves = append(out.Curves, Curve{C: c, Values: vals})
	}
	return out
}

// SampleGrid samples the whole C circle, excluding 360 which repeats 0, over
// gamma 0 to 180.
func SampleGrid(l diagram.Intensities, opts Options) Grid {
	step := opts.step()
	cs := steps(0, 360, step)
	cs = cs[:len(cs)-1]
	gs := steps(0, 180, step)

	grid := Grid{Cs: cs, Gammas: gs, Values: make([][]float64, len(cs))}
	for i, c := range cs {
		row := make([]float64, len(gs))
		for j, g := range gs {
			row[j] = l.Sample(c, g)
		}
		grid.Values[i] = row
	}
	return grid
}
