package diagram

import (
	"encoding/xml"
	"errors"
	"image/color"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/testutil"
)

func loadLDT(t *testing.T, name string) *photometry.Luminaire {
	t.Helper()
	l, err := eulumdat.Parse(testutil.Fixture(t, name))
	require.NoError(t, err)
	return l
}

type renderer struct {
	name string
	fn   func(l Intensities, w, h int, theme Theme) string
}

var renderers = []renderer{
	{"polar", Polar},
	{"cartesian", func(l Intensities, w, h int, th Theme) string { return Cartesian(l, w, h, th, 0) }},
	{"butterfly", func(l Intensities, w, h int, th Theme) string { return Butterfly(l, w, h, th, 60) }},
	{"heatmap", Heatmap},
}

// rootSize checks that doc is well-formed XML with exactly one root element,
// an <svg>, and returns its width and height attributes.
func rootSize(t *testing.T, doc string) (string, string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	depth, roots := 0, 0
	var width, height string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch el := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				assert.Equal(t, "svg", el.Name.Local)
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "width":
						width = a.Value
					case "height":
						height = a.Value
					}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	assert.Equal(t, 1, roots, "document must have a single root element")
	assert.Equal(t, 0, depth, "unbalanced elements")
	return width, height
}

func TestRenderersProduceWellFormedSVG(t *testing.T) {
	models := []string{testutil.VerticalLDT, testutil.C0C180LDT, testutil.QuadrantLDT}
	sizes := [][2]int{{800, 600}, {300, 300}, {120, 900}}

	for _, r := range renderers {
		for _, name := range models {
			l := loadLDT(t, name)
			for _, theme := range []Theme{ThemeLight, ThemeDark} {
				for _, sz := range sizes {
					t.Run(r.name+"/"+name+"/"+theme.String(), func(t *testing.T) {
						w, h := rootSize(t, r.fn(l, sz[0], sz[1], theme))
						assert.Equal(t, strconv.Itoa(sz[0]), w)
						assert.Equal(t, strconv.Itoa(sz[1]), h)
					})
				}
			}
		}
	}
}

func TestRenderersClampNonPositiveSize(t *testing.T) {
	l := loadLDT(t, testutil.C0C180LDT)
	for _, r := range renderers {
		t.Run(r.name, func(t *testing.T) {
			w, h := rootSize(t, r.fn(l, 0, -20, ThemeLight))
			assert.Equal(t, "1", w)
			assert.Equal(t, "1", h)
		})
	}
}

func TestRenderersHandleIESModels(t *testing.T) {
	l, err := ies.Parse(testutil.Fixture(t, testutil.QuadrantIES))
	require.NoError(t, err)
	for _, r := range renderers {
		t.Run(r.name, func(t *testing.T) {
			rootSize(t, r.fn(l, 400, 400, ThemeDark))
		})
	}
}

func TestAllZeroModelRenders(t *testing.T) {
	l, err := photometry.New(photometry.Data{
		Symmetry:    photometry.SymmetryVerticalAxis,
		CAngles:     []float64{0},
		GAngles:     []float64{0, 90},
		Intensities: [][]float64{{0, 0}},
	})
	require.NoError(t, err)
	for _, r := range renderers {
		t.Run(r.name, func(t *testing.T) {
			out := r.fn(l, 200, 200, ThemeLight)
			rootSize(t, out)
			assert.NotContains(t, out, "NaN")
		})
	}
}

func TestThemeSelectsBackground(t *testing.T) {
	l := loadLDT(t, testutil.VerticalLDT)
	assert.Contains(t, Polar(l, 200, 200, ThemeLight), "fill:rgb(255,255,255)")
	assert.Contains(t, Polar(l, 200, 200, ThemeDark), "fill:rgb(30,30,30)")
	// Unknown themes fall back to light.
	assert.Contains(t, Polar(l, 200, 200, Theme(9)), "fill:rgb(255,255,255)")
}

func TestPolarCurveCount(t *testing.T) {
	vertical := Polar(loadLDT(t, testutil.VerticalLDT), 400, 400, ThemeLight)
	assert.Equal(t, 1, strings.Count(vertical, "<polygon"))
	assert.Contains(t, vertical, "C0-C180")
	assert.NotContains(t, vertical, "C90-C270")

	planar := Polar(loadLDT(t, testutil.C0C180LDT), 400, 400, ThemeLight)
	assert.Equal(t, 2, strings.Count(planar, "<polygon"))
	assert.Contains(t, planar, "C90-C270")
}

func TestCartesianRespectsMaxCurves(t *testing.T) {
	l := loadLDT(t, testutil.C0C180LDT)
	tests := []struct {
		maxCurves int
		want      int
	}{
		{0, 5},
		{-3, 5},
		{2, 2},
		{20, 5},
	}
	for _, tt := range tests {
		out := Cartesian(l, 600, 400, ThemeLight, tt.maxCurves)
		assert.Equal(t, tt.want, strings.Count(out, "<polyline"), "maxCurves=%d", tt.maxCurves)
	}

	two := Cartesian(l, 600, 400, ThemeLight, 2)
	assert.Contains(t, two, ">C0<")
	assert.Contains(t, two, ">C45<")
	assert.NotContains(t, two, ">C90<")
}

func TestCartesianGammaAxis(t *testing.T) {
	short := Cartesian(loadLDT(t, testutil.VerticalLDT), 600, 400, ThemeLight, 0)
	assert.Contains(t, short, ">75<")
	assert.NotContains(t, short, ">180<")

	l, err := photometry.New(photometry.Data{
		Symmetry:    photometry.SymmetryVerticalAxis,
		CAngles:     []float64{0},
		GAngles:     []float64{0, 90, 180},
		Intensities: [][]float64{{10, 5, 1}},
	})
	require.NoError(t, err)
	full := Cartesian(l, 600, 400, ThemeLight, 0)
	assert.Contains(t, full, ">180<")
	assert.NotContains(t, full, ">75<")
}

func TestButterflyWingCount(t *testing.T) {
	assert.Equal(t, verticalAxisWings,
		strings.Count(Butterfly(loadLDT(t, testutil.VerticalLDT), 400, 400, ThemeLight, 45), "<polygon"))
	// C0..C180 every 45 degrees mirrors to eight planes.
	assert.Equal(t, 8,
		strings.Count(Butterfly(loadLDT(t, testutil.C0C180LDT), 400, 400, ThemeLight, 45), "<polygon"))
	assert.Equal(t, 4, strings.Count(Butterfly(loadLDT(t, testutil.C0C180LDT), 400, 400, ThemeLight, 0), "<ellipse"))
}

func TestHeatmapCells(t *testing.T) {
	out := Heatmap(loadLDT(t, testutil.QuadrantLDT), 800, 600, ThemeLight)
	// background, cells, frame, legend strips, legend frame
	assert.Equal(t, 1+heatmapCols*heatmapRows+1+legendStrips+1, strings.Count(out, "<rect"))
}

func TestRampColor(t *testing.T) {
	assert.Equal(t, viridis[0], rampColor(viridis, 0))
	assert.Equal(t, viridis[len(viridis)-1], rampColor(viridis, 1))
	assert.Equal(t, viridis[0], rampColor(viridis, -4))
	assert.Equal(t, inferno[len(inferno)-1], rampColor(inferno, 7))
	assert.Equal(t, viridis[2], rampColor(viridis, 0.5))
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	cs := generateColors(6)
	require.Len(t, cs, 6)
	seen := map[color.RGBA]bool{}
	for _, c := range cs {
		seen[c] = true
	}
	assert.Len(t, seen, 6)
	assert.Len(t, lightPalette.curveColors(7), 7)
	assert.Len(t, lightPalette.curveColors(2), 2)
}

func TestNiceTicks(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 100, 200, 300}, niceTicks(300, 5)); diff != "" {
		t.Errorf("ticks mismatch (-want +got):\n%s", diff)
	}
	got := niceTicks(0, 5)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 1, got[len(got)-1], 1e-12)
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("dark")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)
	_, err = ParseTheme("sepia")
	assert.Error(t, err)
	assert.Equal(t, "Unknown", Theme(5).String())
}

func TestExportedPaletteHelpers(t *testing.T) {
	assert.Equal(t, "#dc3c3c", Hex(CurveColors(ThemeLight, 1)[0]))
	assert.Len(t, CurveColors(ThemeDark, 10), 10)

	ramp := RampColors(ThemeDark)
	assert.Equal(t, inferno, ramp)
	ramp[0] = color.RGBA{}
	assert.NotEqual(t, inferno[0], ramp[0])
}

func TestCurvePlanesDefaultsLimit(t *testing.T) {
	l := loadLDT(t, testutil.C0C180LDT)
	assert.Equal(t, CurvePlanes(l, DefaultMaxCurves), CurvePlanes(l, 0))
	assert.Equal(t, []float64{0}, CurvePlanes(loadLDT(t, testutil.VerticalLDT), 3))
}
