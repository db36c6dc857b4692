package photometry

import (
	"math"
)

// Keyword is one IES keyword line, kept in file order.
type Keyword struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Data is the mutable, exported form of a luminaire. Parsers fill it and hand
// it to New; callers that want to edit a model take l.Data(), change it and
// build a new Luminaire from the result.
type Data struct {
	Identification          string
	TypeIndicator           TypeIndicator
	Symmetry                Symmetry
	MeasurementReportNumber string
	LuminaireName           string
	LuminaireNumber         string
	FileName                string
	DateUser                string

	// FullCPlaneCount is the number of C-planes around the whole circle
	// (LDT "Mc"). Zero lets New derive it from the stored grid.
	FullCPlaneCount int
	CPlaneDistance  float64
	GPlaneDistance  float64

	// Geometry in millimetres.
	Length             float64
	Width              float64
	Height             float64
	LuminousAreaLength float64
	LuminousAreaWidth  float64
	// Luminous area heights at C0, C90, C180 and C270.
	LuminousAreaHeights [4]float64

	// Header-declared ratios in percent. They are annotations only; the
	// computed values on the Luminaire are authoritative.
	DeclaredDownwardFluxFraction float64
	DeclaredLightOutputRatio     float64
	RatiosDeclared               bool

	ConversionFactor   float64
	TiltAngle          float64
	AbsolutePhotometry bool

	LampSets     []LampSet
	DirectRatios [10]float64
	Keywords     []Keyword

	// CAngles lists the stored C-planes only; the symmetry class implies the
	// rest of the circle. Intensities is indexed [c][g] in cd/klm.
	CAngles     []float64
	GAngles     []float64
	Intensities [][]float64

	// AllCAngles is the complete LDT C-angle list of FullCPlaneCount entries,
	// kept so an LDT export reproduces it. Empty for models read from IES.
	AllCAngles []float64
}

// Luminaire is an immutable photometric model. It is created by New (the
// parsers call it) and may be shared freely between goroutines.
type Luminaire struct {
	d Data

	maxIntensity   float64
	integratedFlux float64
	downwardFlux   float64
}

// New checks d against the model invariants, copies it and computes the
// derived scalars. The returned error wraps ErrInvalidModel.
func New(d Data) (*Luminaire, error) {
	if err := checkData(&d); err != nil {
		return nil, err
	}

	l := &Luminaire{d: d.clone()}
	if l.d.FullCPlaneCount <= 0 {
		l.d.FullCPlaneCount = deriveFullCPlaneCount(&l.d)
	}
	l.computeDerived()
	return l, nil
}

func checkData(d *Data) error {
	if !d.Symmetry.Valid() {
		return invalidf("symmetry %d out of range 0-4", int(d.Symmetry))
	}
	if !d.TypeIndicator.Valid() {
		return invalidf("type indicator %d out of range 0-2", int(d.TypeIndicator))
	}
	if len(d.CAngles) == 0 {
		return invalidf("no C-planes")
	}
	if len(d.GAngles) == 0 {
		return invalidf("no gamma angles")
	}
	if len(d.Intensities) != len(d.CAngles) {
		return invalidf("intensity table has %d C-planes, expected %d", len(d.Intensities), len(d.CAngles))
	}
	for i, row := range d.Intensities {
		if len(row) != len(d.GAngles) {
			return invalidf("C-plane %d has %d intensities, expected %d", i, len(row), len(d.GAngles))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf("intensity [%d][%d] is not finite", i, j)
			}
			if v < 0 {
				return invalidf("intensity [%d][%d] is negative (%g)", i, j, v)
			}
		}
	}
	if err := checkAngles("C", d.CAngles, 0, 360); err != nil {
		return err
	}
	if err := checkAngles("gamma", d.GAngles, 0, 180); err != nil {
		return err
	}

	lo, hi := StoredCRange(d.Symmetry)
	switch d.Symmetry {
	case SymmetryVerticalAxis:
		if len(d.CAngles) != 1 {
			return invalidf("vertical axis symmetry stores exactly one C-plane, got %d", len(d.CAngles))
		}
	case SymmetryPlaneC0C180, SymmetryPlaneC90C270, SymmetryBothPlanes:
		first, last := d.CAngles[0], d.CAngles[len(d.CAngles)-1]
		if first < lo || last > hi {
			return invalidf("C-planes %g..%g outside the %g..%g range stored for %s",
				first, last, lo, hi, d.Symmetry)
		}
	}
	return nil
}

func checkAngles(name string, angles []float64, lo, hi float64) error {
	for i, a := range angles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return invalidf("%s angle %d is not finite", name, i)
		}
		if a < lo || a > hi {
			return invalidf("%s angle %g outside %g..%g", name, a, lo, hi)
		}
		if i > 0 && a < angles[i-1] {
			return invalidf("%s angles decrease at index %d (%g after %g)", name, i, a, angles[i-1])
		}
	}
	return nil
}

func deriveFullCPlaneCount(d *Data) int {
	if d.CPlaneDistance > 0 {
		if n := int(math.Round(360 / d.CPlaneDistance)); n > 0 {
			return n
		}
	}
	n := len(d.CAngles)
	switch d.Symmetry {
	case SymmetryVerticalAxis:
		return 1
	case SymmetryPlaneC0C180, SymmetryPlaneC90C270:
		n = 2 * (n - 1)
	case SymmetryBothPlanes:
		n = 4 * (n - 1)
	default:
		if d.CAngles[len(d.CAngles)-1] >= 360 && n > 1 {
			n--
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (d Data) clone() Data {
	c := d
	c.LampSets = append([]LampSet(nil), d.LampSets...)
	c.Keywords = append([]Keyword(nil), d.Keywords...)
	c.CAngles = append([]float64(nil), d.CAngles...)
	c.AllCAngles = append([]float64(nil), d.AllCAngles...)
	c.GAngles = append([]float64(nil), d.GAngles...)
	c.Intensities = make([][]float64, len(d.Intensities))
	for i, row := range d.Intensities {
		c.Intensities[i] = append([]float64(nil), row...)
	}
	return c
}

// Data returns a deep copy of the model's contents.
func (l *Luminaire) Data() Data { return l.d.clone() }

func (l *Luminaire) Symmetry() Symmetry           { return l.d.Symmetry }
func (l *Luminaire) TypeIndicator() TypeIndicator { return l.d.TypeIndicator }
func (l *Luminaire) NumCPlanes() int              { return len(l.d.CAngles) }
func (l *Luminaire) NumGPlanes() int              { return len(l.d.GAngles) }
func (l *Luminaire) FullCPlaneCount() int         { return l.d.FullCPlaneCount }
func (l *Luminaire) CPlaneDistance() float64      { return l.d.CPlaneDistance }
func (l *Luminaire) GPlaneDistance() float64      { return l.d.GPlaneDistance }

// CAngles returns a copy of the stored C-plane angles.
func (l *Luminaire) CAngles() []float64 { return append([]float64(nil), l.d.CAngles...) }

// GAngles returns a copy of the gamma angles.
func (l *Luminaire) GAngles() []float64 { return append([]float64(nil), l.d.GAngles...) }

// Intensity returns the stored table entry for C-plane ci and gamma index gi.
func (l *Luminaire) Intensity(ci, gi int) float64 { return l.d.Intensities[ci][gi] }

// Intensities returns a copy of the stored intensity table, indexed [c][g].
func (l *Luminaire) Intensities() [][]float64 { return l.Data().Intensities }

// LampSets returns a copy of the lamp sets in file order.
func (l *Luminaire) LampSets() []LampSet { return append([]LampSet(nil), l.d.LampSets...) }

// MaxIntensity is the largest stored intensity in cd/klm.
func (l *Luminaire) MaxIntensity() float64 { return l.maxIntensity }

// IntegratedFlux is the flux emitted per 1000 lm of lamp flux.
func (l *Luminaire) IntegratedFlux() float64 { return l.integratedFlux }

// LightOutputRatio is the computed light output ratio in percent.
func (l *Luminaire) LightOutputRatio() float64 { return l.integratedFlux / 10 }

// DownwardFluxFraction is the computed share of the emitted flux below the
// horizontal plane, in percent.
func (l *Luminaire) DownwardFluxFraction() float64 {
	if l.integratedFlux <= 0 {
		return 0
	}
	return 100 * l.downwardFlux / l.integratedFlux
}

// TotalLampFlux sums the nominal flux of all lamp sets.
func (l *Luminaire) TotalLampFlux() float64 {
	var sum float64
	for _, ls := range l.d.LampSets {
		sum += ls.TotalLuminousFlux
	}
	return sum
}

// TotalLuminousFlux is the luminaire output in lumens: the computed light
// output ratio applied to the nominal lamp flux. Without lamp flux it falls
// back to IntegratedFlux.
func (l *Luminaire) TotalLuminousFlux() float64 {
	lamp := l.TotalLampFlux()
	if lamp <= 0 {
		return l.integratedFlux
	}
	return l.LightOutputRatio() / 100 * lamp
}

// TotalWattage sums the system wattage of all lamp sets.
func (l *Luminaire) TotalWattage() float64 {
	var sum float64
	for _, ls := range l.d.LampSets {
		sum += ls.WattageWithBallast
	}
	return sum
}

// LuminousEfficacy is the luminaire output per watt, 0 when no wattage is known.
func (l *Luminaire) LuminousEfficacy() float64 {
	w := l.TotalWattage()
	if w <= 0 {
		return 0
	}
	return l.TotalLuminousFlux() / w
}
