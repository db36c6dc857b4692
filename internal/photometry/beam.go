package photometry

import "math"

// Thresholds, as fractions of the peak intensity, that define the beam,
// field and cut-off angles.
const (
	BeamThreshold   = 0.5
	FieldThreshold  = 0.1
	CutOffThreshold = 0.025
)

// Scan resolution for threshold crossings, in degrees.
const crossingStep = 0.1

// cutOffPlaneStep is the C-plane spacing searched for the cut-off angle.
const cutOffPlaneStep = 5.0

// Beam holds the angular spread of a luminaire in degrees. Beam and field
// angles are full angles across a vertical plane; the cut-off angle is
// measured from nadir.
type Beam struct {
	BeamAngle   float64 `json:"beam_angle"`
	FieldAngle  float64 `json:"field_angle"`
	CutOffAngle float64 `json:"cut_off_angle"`
	BeamC0      float64 `json:"beam_c0"`
	BeamC90     float64 `json:"beam_c90"`
	FieldC0     float64 `json:"field_c0"`
	FieldC90    float64 `json:"field_c90"`
}

// Beam computes the beam (50%), field (10%) and cut-off (2.5%) angles. The
// overall beam and field angles average the C0-C180 and C90-C270 planes.
func (l *Luminaire) Beam() Beam {
	b := Beam{
		BeamC0:      l.SpreadAngle(0, BeamThreshold),
		BeamC90:     l.SpreadAngle(90, BeamThreshold),
		FieldC0:     l.SpreadAngle(0, FieldThreshold),
		FieldC90:    l.SpreadAngle(90, FieldThreshold),
		CutOffAngle: l.CutOffAngle(),
	}
	b.BeamAngle = (b.BeamC0 + b.BeamC90) / 2
	b.FieldAngle = (b.FieldC0 + b.FieldC90) / 2
	return b
}

// SpreadAngle returns the full angle across the vertical plane through C-plane
// c and c+180 within which the intensity stays at or above fraction of the
// peak intensity. An all-zero table has no spread.
func (l *Luminaire) SpreadAngle(c, fraction float64) float64 {
	if l.maxIntensity <= 0 {
		return 0
	}
	return l.halfAngle(c, fraction) + l.halfAngle(c+180, fraction)
}

// CutOffAngle returns the largest gamma, over all C-planes, below which the
// intensity first falls under CutOffThreshold of the peak.
func (l *Luminaire) CutOffAngle() float64 {
	if l.maxIntensity <= 0 {
		return 0
	}
	var out float64
	for c := 0.0; c < 360; c += cutOffPlaneStep {
		out = math.Max(out, l.halfAngle(c, CutOffThreshold))
	}
	return out
}

// halfAngle scans outward from the brightest gamma of half-plane c and
// returns the interpolated gamma at which the intensity drops below fraction
// of the peak, or the last measured gamma when it never does.
func (l *Luminaire) halfAngle(c, fraction float64) float64 {
	threshold := fraction * l.maxIntensity
	last := l.d.GAngles[len(l.d.GAngles)-1]

	start, peak := 0.0, -1.0
	for _, g := range l.d.GAngles {
		if v := l.Sample(c, g); v > peak {
			start, peak = g, v
		}
	}
	if peak < threshold {
		return start
	}

	prevG, prevV := start, peak
	for i := 1; ; i++ {
		g := math.Min(last, start+float64(i)*crossingStep)
		v := l.Sample(c, g)
		if v < threshold {
			return prevG + (prevV-threshold)/(prevV-v)*(g-prevG)
		}
		if g >= last {
			return last
		}
		prevG, prevV = g, v
	}
}
