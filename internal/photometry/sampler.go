package photometry

import (
	"math"
	"sort"
)

// Sample returns the intensity in cd/klm at (c, g) degrees, bilinearly
// interpolated on the stored grid after symmetry folding. Grid points return
// the stored value exactly.
func (l *Luminaire) Sample(c, g float64) float64 {
	if math.IsNaN(g) {
		g = 0
	}
	g = math.Max(0, math.Min(180, g))
	cf := FoldCAngle(l.d.Symmetry, c)

	cs := l.d.CAngles
	n := len(cs)
	if n == 1 {
		return l.sampleG(0, g)
	}

	i := sort.SearchFloat64s(cs, cf)
	switch {
	case i < n && cs[i] == cf:
		return l.sampleG(i, g)
	case i == 0:
		return l.sampleG(0, g)
	case i == n:
		if l.d.Symmetry == SymmetryNone && cs[0] == 0 && cs[n-1] < 360 {
			t := (cf - cs[n-1]) / (360 - cs[n-1])
			return lerp(l.sampleG(n-1, g), l.sampleG(0, g), t)
		}
		return l.sampleG(n-1, g)
	}
	t := (cf - cs[i-1]) / (cs[i] - cs[i-1])
	return lerp(l.sampleG(i-1, g), l.sampleG(i, g), t)
}

// SampleNormalized is Sample divided by MaxIntensity, in [0,1]. A model
// whose table is all zero samples as 0 everywhere.
func (l *Luminaire) SampleNormalized(c, g float64) float64 {
	if l.maxIntensity <= 0 {
		return 0
	}
	v := l.Sample(c, g) / l.maxIntensity
	return math.Max(0, math.Min(1, v))
}

func (l *Luminaire) sampleG(ci int, g float64) float64 {
	gs := l.d.GAngles
	row := l.d.Intensities[ci]
	n := len(gs)
	j := sort.SearchFloat64s(gs, g)
	switch {
	case j < n && gs[j] == g:
		return row[j]
	case j == 0:
		return row[0]
	case j == n:
		return row[n-1]
	}
	t := (g - gs[j-1]) / (gs[j] - gs[j-1])
	return lerp(row[j-1], row[j], t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
