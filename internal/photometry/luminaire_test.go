package photometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steps(from, to, step float64) []float64 {
	var out []float64
	for a := from; a <= to+1e-9; a += step {
		out = append(out, a)
	}
	return out
}

// uniformData builds a model radiating the same intensity in every direction.
func uniformData(sym Symmetry, cAngles []float64, value float64) Data {
	g := steps(0, 180, 1)
	table := make([][]float64, len(cAngles))
	for i := range table {
		table[i] = make([]float64, len(g))
		for j := range g {
			table[i][j] = value
		}
	}
	return Data{
		Symmetry:      sym,
		TypeIndicator: PointSourceOther,
		CAngles:       cAngles,
		GAngles:       g,
		Intensities:   table,
	}
}

func TestSymmetryName(t *testing.T) {
	tests := []struct {
		ordinal int
		want    string
	}{
		{0, "None (Full 360°)"},
		{1, "Vertical Axis (C0 only)"},
		{2, "Plane C0-C180"},
		{3, "Plane C90-C270"},
		{4, "Both Planes (Quadrant)"},
		{5, "Unknown"},
		{99, "Unknown"},
		{-1, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SymmetryName(tt.ordinal), "ordinal %d", tt.ordinal)
	}
	assert.Equal(t, "Both Planes (Quadrant)", SymmetryBothPlanes.String())
}

func TestTypeIndicatorName(t *testing.T) {
	assert.Equal(t, "Point Source (Symmetric)", TypeIndicatorName(0))
	assert.Equal(t, "Linear", TypeIndicatorName(1))
	assert.Equal(t, "Point Source (Other)", TypeIndicatorName(2))
	assert.Equal(t, UnknownName, TypeIndicatorName(3))
	assert.Equal(t, "Linear", Linear.String())
}

func TestNewRejectsInvalidData(t *testing.T) {
	valid := func() Data {
		return Data{
			Symmetry:    SymmetryPlaneC0C180,
			CAngles:     []float64{0, 90, 180},
			GAngles:     []float64{0, 90},
			Intensities: [][]float64{{1, 2}, {3, 4}, {5, 6}},
		}
	}
	tests := []struct {
		name   string
		mutate func(d *Data)
	}{
		{"no C-planes", func(d *Data) { d.CAngles = nil; d.Intensities = nil }},
		{"no gamma angles", func(d *Data) {
			d.GAngles = nil
			d.Intensities = [][]float64{{}, {}, {}}
		}},
		{"missing row", func(d *Data) { d.Intensities = d.Intensities[:2] }},
		{"ragged row", func(d *Data) { d.Intensities[1] = []float64{1} }},
		{"negative intensity", func(d *Data) { d.Intensities[0][1] = -1 }},
		{"NaN intensity", func(d *Data) { d.Intensities[2][0] = math.NaN() }},
		{"infinite intensity", func(d *Data) { d.Intensities[2][0] = math.Inf(1) }},
		{"decreasing C", func(d *Data) { d.CAngles = []float64{0, 120, 90} }},
		{"decreasing gamma", func(d *Data) { d.GAngles = []float64{90, 0} }},
		{"gamma above 180", func(d *Data) { d.GAngles = []float64{0, 190} }},
		{"C outside stored range", func(d *Data) { d.CAngles = []float64{0, 90, 200} }},
		{"bad symmetry", func(d *Data) { d.Symmetry = 7 }},
		{"bad type", func(d *Data) { d.TypeIndicator = -1 }},
		{"vertical axis with several planes", func(d *Data) { d.Symmetry = SymmetryVerticalAxis }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)
			_, err := New(d)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}

	_, err := New(valid())
	require.NoError(t, err)
}

func TestNewCopiesInput(t *testing.T) {
	d := Data{
		Symmetry:    SymmetryNone,
		CAngles:     []float64{0, 180},
		GAngles:     []float64{0, 90},
		Intensities: [][]float64{{10, 20}, {30, 40}},
		LampSets:    []LampSet{{NumLamps: 1, TotalLuminousFlux: 1000}},
	}
	l, err := New(d)
	require.NoError(t, err)

	d.Intensities[0][0] = 999
	d.CAngles[1] = 170
	d.LampSets[0].TotalLuminousFlux = 5

	assert.Equal(t, 10.0, l.Intensity(0, 0))
	assert.Equal(t, []float64{0, 180}, l.CAngles())
	assert.Equal(t, 1000.0, l.LampSets()[0].TotalLuminousFlux)

	got := l.Data()
	got.Intensities[1][1] = -5
	assert.Equal(t, 40.0, l.Intensity(1, 1))

	edited, err := New(got)
	require.Error(t, err, "edited copy with a negative value must be rejected")
	assert.Nil(t, edited)
}

func TestFullCPlaneCountDerived(t *testing.T) {
	tests := []struct {
		name string
		d    Data
		want int
	}{
		{"from distance", Data{Symmetry: SymmetryPlaneC0C180, CPlaneDistance: 15, CAngles: steps(0, 180, 15)}, 24},
		{"C0-C180 from count", Data{Symmetry: SymmetryPlaneC0C180, CAngles: steps(0, 180, 30)}, 12},
		{"quadrant from count", Data{Symmetry: SymmetryBothPlanes, CAngles: steps(0, 90, 30)}, 12},
		{"full circle closed at 360", Data{Symmetry: SymmetryNone, CAngles: steps(0, 360, 90)}, 4},
		{"vertical axis", Data{Symmetry: SymmetryVerticalAxis, CAngles: []float64{0}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.d.GAngles = []float64{0}
			tt.d.Intensities = make([][]float64, len(tt.d.CAngles))
			for i := range tt.d.Intensities {
				tt.d.Intensities[i] = []float64{1}
			}
			l, err := New(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.FullCPlaneCount())
		})
	}
}

func TestUniformFluxAcrossSymmetries(t *testing.T) {
	// 1000 lm spread evenly over the sphere.
	iso := 1000 / (4 * math.Pi)
	tests := []struct {
		name    string
		sym     Symmetry
		cAngles []float64
	}{
		{"none", SymmetryNone, steps(0, 345, 15)},
		{"vertical axis", SymmetryVerticalAxis, []float64{0}},
		{"C0-C180", SymmetryPlaneC0C180, steps(0, 180, 15)},
		{"C90-C270", SymmetryPlaneC90C270, steps(90, 270, 15)},
		{"quadrant", SymmetryBothPlanes, steps(0, 90, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := uniformData(tt.sym, tt.cAngles, iso)
			d.LampSets = []LampSet{{NumLamps: 1, TotalLuminousFlux: 2000, WattageWithBallast: 20}}
			l, err := New(d)
			require.NoError(t, err)

			assert.InDelta(t, 1000, l.IntegratedFlux(), 0.5)
			assert.InDelta(t, 100, l.LightOutputRatio(), 0.05)
			assert.InDelta(t, 50, l.DownwardFluxFraction(), 0.05)
			assert.InDelta(t, 2000, l.TotalLuminousFlux(), 1)
			assert.InDelta(t, 100, l.LuminousEfficacy(), 0.05)
			assert.InDelta(t, iso, l.MaxIntensity(), 1e-12)
		})
	}
}

func TestDerivedScalarsWithoutLamps(t *testing.T) {
	d := Data{
		Symmetry:      SymmetryVerticalAxis,
		TypeIndicator: PointSourceSymmetric,
		CAngles:       []float64{0},
		GAngles:       []float64{0, 90},
		Intensities:   [][]float64{{1000, 500}},
	}
	l, err := New(d)
	require.NoError(t, err)

	// Trapezoid over [0, π/2] of I·sinγ is (π/4)·500; times 2π for the circle.
	want := 2 * math.Pi * math.Pi / 4 * 500
	assert.InDelta(t, want, l.IntegratedFlux(), 1e-9)
	assert.InDelta(t, want, l.TotalLuminousFlux(), 1e-9)
	assert.InDelta(t, 100, l.DownwardFluxFraction(), 1e-9)
	assert.Equal(t, 0.0, l.TotalWattage())
	assert.Equal(t, 0.0, l.LuminousEfficacy())
	assert.Equal(t, 1000.0, l.MaxIntensity())
}

func TestInfoSnapshot(t *testing.T) {
	d := uniformData(SymmetryBothPlanes, steps(0, 90, 30), 100)
	d.LuminaireName = "Downlight"
	d.Identification = "ACME"
	d.CPlaneDistance = 30
	d.GPlaneDistance = 1
	d.LampSets = []LampSet{{NumLamps: 2, TotalLuminousFlux: 1500, WattageWithBallast: 15}}
	l, err := New(d)
	require.NoError(t, err)

	info := l.Info()
	want := Info{
		Identification:       "ACME",
		LuminaireName:        "Downlight",
		Symmetry:             4,
		TypeIndicator:        2,
		NumCPlanes:           4,
		NumGPlanes:           181,
		FullCPlaneCount:      12,
		CPlaneDistance:       30,
		GPlaneDistance:       1,
		MaxIntensity:         100,
		TotalLuminousFlux:    l.TotalLuminousFlux(),
		TotalLampFlux:        1500,
		DownwardFluxFraction: l.DownwardFluxFraction(),
		LightOutputRatio:     l.LightOutputRatio(),
		TotalWattage:         15,
		LuminousEfficacy:     l.LuminousEfficacy(),
		NumLampSets:          1,
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandCircle(t *testing.T) {
	angles := func(refs []planeRef) []float64 {
		out := make([]float64, len(refs))
		for i, r := range refs {
			out[i] = r.angle
		}
		return out
	}
	assert.Equal(t, []float64{0, 90, 180, 270}, angles(expandCircle(SymmetryBothPlanes, []float64{0, 90})))
	assert.Equal(t, []float64{0, 90, 180, 270}, angles(expandCircle(SymmetryPlaneC0C180, []float64{0, 90, 180})))
	assert.Equal(t, []float64{0, 90, 180, 270}, angles(expandCircle(SymmetryPlaneC90C270, []float64{90, 180, 270})))
	assert.Equal(t, []float64{0, 180}, angles(expandCircle(SymmetryNone, []float64{0, 180, 360})))

	refs := expandCircle(SymmetryPlaneC90C270, []float64{90, 135, 180, 225, 270})
	byAngle := map[float64]int{}
	for _, r := range refs {
		byAngle[r.angle] = r.index
	}
	assert.Equal(t, 1, byAngle[45], "C45 mirrors C135")
	assert.Equal(t, 3, byAngle[315], "C315 mirrors C225")
	assert.Equal(t, 2, byAngle[0], "C0 mirrors C180")
}
