package photometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Sampling resolution, in degrees, for zone integrals.
const (
	zoneStepG = 0.5
	zoneStepC = 2.0
)

// span returns evenly spaced points from lo to hi inclusive, no further
// apart than step.
func span(lo, hi, step float64) []float64 {
	n := int(math.Ceil((hi-lo)/step)) + 1
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// ZoneFlux integrates the sampled intensity over the solid angle between
// gamma g0 and g1 and between C-angles c0 and c1, all in degrees. Nothing is
// emitted outside the measured gamma range. The result has the units of
// IntegratedFlux.
func (l *Luminaire) ZoneFlux(g0, g1, c0, c1 float64) float64 {
	gs := l.d.GAngles
	g0 = math.Max(g0, gs[0])
	g1 = math.Min(g1, gs[len(gs)-1])
	if g1 <= g0 || c1 <= c0 {
		return 0
	}
	gDeg := span(g0, g1, zoneStepG)
	g := degToRad(gDeg)
	cDeg := span(c0, c1, zoneStepC)

	perPlane := make([]float64, len(cDeg))
	f := make([]float64, len(g))
	for i, c := range cDeg {
		for j := range g {
			f[j] = l.Sample(c, gDeg[j]) * math.Sin(g[j])
		}
		perPlane[i] = integrate.Trapezoidal(g, f)
	}
	return integrate.Trapezoidal(degToRad(cDeg), perPlane)
}

// zoneShare returns the fraction of the whole-sphere flux emitted in a zone.
func (l *Luminaire) zoneShare(g0, g1, c0, c1 float64) float64 {
	sphere := l.ZoneFlux(0, 180, 0, 360)
	if sphere <= 0 {
		return 0
	}
	return l.ZoneFlux(g0, g1, c0, c1) / sphere
}

// CumulativeFlux returns the percentage of the luminaire flux emitted within
// gamma of nadir.
func (l *Luminaire) CumulativeFlux(gamma float64) float64 {
	gamma = math.Max(0, math.Min(180, gamma))
	return 100 * l.zoneShare(0, gamma, 0, 360)
}

// ZonalLumens holds the percentage of the luminaire flux in each 30° gamma
// zone, starting at nadir.
type ZonalLumens [6]float64

// Downward is the share of the zones below the horizontal.
func (z ZonalLumens) Downward() float64 { return z[0] + z[1] + z[2] }

// Upward is the share of the zones above the horizontal.
func (z ZonalLumens) Upward() float64 { return z[3] + z[4] + z[5] }

// ZonalLumens30 splits the luminaire flux into 30° gamma zones.
func (l *Luminaire) ZonalLumens30() ZonalLumens {
	var z ZonalLumens
	for i := range z {
		g0 := float64(i) * 30
		z[i] = 100 * l.zoneShare(g0, g0+30, 0, 360)
	}
	return z
}

// CIEFluxCode holds the five flux code numbers, each a percentage of the lamp
// flux (of the luminaire flux for absolute photometry).
type CIEFluxCode struct {
	N1 float64 `json:"n1"` // 0-90°, downward light output ratio
	N2 float64 `json:"n2"` // 0-60°
	N3 float64 `json:"n3"` // 0-40°
	N4 float64 `json:"n4"` // 90-180°, upward light output ratio
	N5 float64 `json:"n5"` // 90-120°
}

func (c CIEFluxCode) String() string {
	return fmt.Sprintf("%.0f %.0f %.0f %.0f %.0f", c.N1, c.N2, c.N3, c.N4, c.N5)
}

// CIEFluxCode computes the flux code numbers.
func (l *Luminaire) CIEFluxCode() CIEFluxCode {
	ref := l.LightOutputRatio()
	if l.d.AbsolutePhotometry {
		ref = 100
	}
	share := func(g0, g1 float64) float64 { return ref * l.zoneShare(g0, g1, 0, 360) }
	return CIEFluxCode{
		N1: share(0, 90),
		N2: share(0, 60),
		N3: share(0, 40),
		N4: share(90, 180),
		N5: share(90, 120),
	}
}

// BUGZones holds the lumens in the backlight, forward light and uplight
// zones used by the BUG rating. Forward is the half-space C 0-180 and back
// is C 180-360.
type BUGZones struct {
	BL  float64 `json:"bl"`
	BM  float64 `json:"bm"`
	BH  float64 `json:"bh"`
	BVH float64 `json:"bvh"`
	FL  float64 `json:"fl"`
	FM  float64 `json:"fm"`
	FH  float64 `json:"fh"`
	FVH float64 `json:"fvh"`
	UL  float64 `json:"ul"`
	UH  float64 `json:"uh"`
}

// BUGZones splits TotalLuminousFlux into the BUG zones.
func (l *Luminaire) BUGZones() BUGZones {
	total := l.TotalLuminousFlux()
	lm := func(g0, g1, c0, c1 float64) float64 { return total * l.zoneShare(g0, g1, c0, c1) }
	return BUGZones{
		FL:  lm(0, 30, 0, 180),
		FM:  lm(30, 60, 0, 180),
		FH:  lm(60, 80, 0, 180),
		FVH: lm(80, 90, 0, 180),
		BL:  lm(0, 30, 180, 360),
		BM:  lm(30, 60, 180, 360),
		BH:  lm(60, 80, 180, 360),
		BVH: lm(80, 90, 180, 360),
		UL:  lm(90, 100, 0, 360),
		UH:  lm(100, 180, 0, 360),
	}
}

// BUGRating is a backlight, uplight and glare rating, each 0 to 5.
type BUGRating struct {
	B int `json:"b"`
	U int `json:"u"`
	G int `json:"g"`
}

func (r BUGRating) String() string {
	return fmt.Sprintf("B%d U%d G%d", r.B, r.U, r.G)
}

// zoneLimit is the lumen ceiling of one zone for ratings 0 to 4; anything
// above the last ceiling rates 5.
type zoneLimit struct {
	value  float64
	limits [5]float64
}

func rate(zones ...zoneLimit) int {
	for r := 0; r < 5; r++ {
		ok := true
		for _, z := range zones {
			if z.value > z.limits[r] {
				ok = false
				break
			}
		}
		if ok {
			return r
		}
	}
	return 5
}

// Rating applies the lumen limits of IES TM-15-11 to the zones.
func (z BUGZones) Rating() BUGRating {
	return BUGRating{
		B: rate(
			zoneLimit{z.BL, [5]float64{110, 500, 1000, 2500, 5000}},
			zoneLimit{z.BM, [5]float64{220, 1000, 2500, 5000, 8500}},
			zoneLimit{z.BH, [5]float64{110, 500, 1000, 2500, 5000}},
			zoneLimit{z.BVH, [5]float64{10, 75, 150, 500, 1000}},
		),
		U: rate(
			zoneLimit{z.UL, [5]float64{0, 10, 50, 500, 1000}},
			zoneLimit{z.UH, [5]float64{0, 10, 50, 500, 1000}},
		),
		G: rate(
			zoneLimit{z.FH, [5]float64{660, 1800, 5000, 7500, 12000}},
			zoneLimit{z.FVH, [5]float64{10, 100, 225, 500, 750}},
			zoneLimit{z.BH, [5]float64{110, 500, 1000, 2500, 5000}},
			zoneLimit{z.BVH, [5]float64{10, 100, 225, 500, 750}},
		),
	}
}
