package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/monitoring"
	"github.com/banshee-data/photometric/internal/testutil"
)

// shortGammaLDT stops at gamma 80, which validation reports as W006.
const shortGammaLDT = `Short gamma
1
1
1
0
3
40
REP
Lum
NUM
short.ldt
2024
0
0
0
0
0
0
0
0
0
100
100
1
0
1
1
LED
1000
3000K
1A
10
0
0
0
0
0
0
0
0
0
0
0
0
40
80
100
50
0
`

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(original) })

	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// fixtureDir writes the shared fixtures to a temporary directory.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range testutil.FixtureNames() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(testutil.Fixture(t, name)), 0644))
	}
	return dir
}

func TestRunTopLevel(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "eulumdat version "), out)

	code, out, _ = execute(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Commands:")

	code, _, errOut := execute(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: eulumdat")

	code, _, errOut = execute(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unknown command: frobnicate")

	code, _, errOut = execute(t, "--config", "missing.yaml", "version")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, ".json extension")
}

func TestInfo(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.VerticalLDT)

	code, out, _ := execute(t, "info", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Name:           Downlight 100")
	assert.Contains(t, out, "Vertical Axis")
	assert.NotContains(t, out, "=== Intensity Data")

	code, out, _ = execute(t, "info", "--verbose", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "=== Intensity Data (cd/klm) ===")

	code, out, _ = execute(t, "info", "--json", filepath.Join(dir, testutil.DownlightIES))
	require.Equal(t, 0, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, ies.Format, got["format"])
	assert.Equal(t, "DL-200", got["luminaire_number"])
	assert.NotEmpty(t, got["lamp_sets"])
}

func TestInfoErrors(t *testing.T) {
	code, _, errOut := execute(t, "info")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: eulumdat info")

	code, _, errOut = execute(t, "info", filepath.Join(t.TempDir(), "absent.ldt"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error:")

	bad := filepath.Join(t.TempDir(), "bad.ldt")
	require.NoError(t, os.WriteFile(bad, []byte("not a eulumdat file"), 0644))
	code, _, errOut = execute(t, "info", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "LDT")
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.ldt")
	require.NoError(t, os.WriteFile(path, []byte(shortGammaLDT), 0644))

	code, out, _ := execute(t, "validate", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "W006")

	code, _, errOut := execute(t, "validate", "--strict", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "strict validation failed")
}

func TestConvert(t *testing.T) {
	dir := fixtureDir(t)
	src := filepath.Join(dir, testutil.QuadrantIES)
	dst := filepath.Join(dir, "quadrant_out.ldt")

	code, out, _ := execute(t, "convert", src, dst)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Converted")
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	_, err = eulumdat.Parse(string(data))
	assert.NoError(t, err)

	code, _, errOut := execute(t, "convert", src, dst)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--force")

	code, _, _ = execute(t, "convert", "--force", src, dst)
	assert.Equal(t, 0, code)

	code, _, errOut = execute(t, "convert", src, filepath.Join(dir, "out.txt"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "cannot tell output format")
}

func TestDiagram(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.C0C180LDT)

	for _, kind := range []string{"polar", "cartesian", "butterfly", "heatmap"} {
		t.Run(kind, func(t *testing.T) {
			code, out, errOut := execute(t, "diagram", "--type", kind, "--width", "320", "--height", "200", "--dark", path)
			require.Equal(t, 0, code, errOut)
			assert.Contains(t, out, `width="320" height="200"`)
			assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
		})
	}

	svgPath := filepath.Join(dir, "polar.svg")
	code, out, _ := execute(t, "diagram", "-o", svgPath, path)
	require.Equal(t, 0, code)
	assert.Empty(t, out)
	data, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `width="600" height="600"`)

	code, _, errOut := execute(t, "diagram", "--type", "pie", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown diagram type")

	code, _, errOut = execute(t, "diagram", "--theme", "sepia", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown theme")
}

func TestDiagramUsesConfig(t *testing.T) {
	dir := fixtureDir(t)
	cfgPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"diagram_width": 150, "diagram_height": 90}`), 0644))

	code, out, _ := execute(t, "--config", cfgPath, "diagram", filepath.Join(dir, testutil.VerticalLDT))
	require.Equal(t, 0, code)
	assert.Contains(t, out, `width="150" height="90"`)
}

func TestSample(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.VerticalLDT)
	l, err := eulumdat.Parse(testutil.Fixture(t, testutil.VerticalLDT))
	require.NoError(t, err)

	code, out, _ := execute(t, "sample", "-c", "90", "-g", "30", path)
	require.Equal(t, 0, code)
	assert.Equal(t, formatSample(l.Sample(90, 30)), strings.TrimSpace(out))

	code, out, _ = execute(t, "sample", "-normalized", "-g", "0", path)
	require.Equal(t, 0, code)
	assert.Equal(t, formatSample(l.SampleNormalized(0, 0)), strings.TrimSpace(out))

	code, out, _ = execute(t, "sample", "-table", "-step", "30", path)
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "gamma\tC0", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0\t"), lines[1])
}

func formatSample(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func TestCalc(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.VerticalLDT)

	// The fixture falls from 300 to 140 cd/klm between 45° and 60°.
	code, out, errOut := execute(t, "calc", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "=== Beam Characteristics ===")
	assert.Contains(t, out, "Beam angle (50%):  115.7°")
	assert.Contains(t, out, "Cut-off angle:     88.1°")
	assert.Contains(t, out, "=== CIE Flux Code ===")
	assert.Contains(t, out, "=== Zonal Lumens (30° zones) ===")
	assert.Contains(t, out, "Upward:            0.0%")

	code, out, errOut = execute(t, "calc", "--type", "cie", "--json", path)
	require.Equal(t, 0, code, errOut)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "cie_flux_code")
	assert.NotContains(t, got, "beam")
	assert.NotContains(t, got, "zonal_lumens")

	code, _, errOut = execute(t, "calc", "--type", "glare", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown calculation")
}

func TestBUG(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.VerticalLDT)

	code, out, errOut := execute(t, "bug", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Rating:     B")
	assert.Contains(t, out, " U0 ")
	assert.Contains(t, out, "Backlight:  BL=")
	assert.Contains(t, out, "Uplight:    UL=0.0 UH=0.0 lm")

	code, out, errOut = execute(t, "bug", "--json", path)
	require.Equal(t, 0, code, errOut)
	var got struct {
		Rating struct{ B, U, G int } `json:"rating"`
		Zones  map[string]float64    `json:"zones"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.Rating.U)
	assert.Len(t, got.Zones, 10)

	code, _, _ = execute(t, "bug")
	assert.Equal(t, 1, code)
}

func TestBatch(t *testing.T) {
	src := fixtureDir(t)
	dst := t.TempDir()

	code, out, errOut := execute(t, "batch", "--format", "ies", "-o", dst, src)
	require.Equal(t, 0, code, errOut)
	// quadrant.ies is normalized first, so quadrant.ldt maps onto it and is skipped.
	assert.Contains(t, out, "4 converted, 1 skipped, 0 failed")
	for _, name := range []string{"vertical.ies", "c0c180.ies", "quadrant.ies", "downlight.ies"} {
		_, err := os.Stat(filepath.Join(dst, name))
		assert.NoError(t, err, name)
	}

	code, out, _ = execute(t, "batch", "--format", "ies", "-o", dst, src)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "0 converted, 5 skipped, 0 failed")

	// Without -o the output lands next to the input.
	inPlace := fixtureDir(t)
	code, out, errOut = execute(t, "batch", "--format", "ldt", inPlace)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "1 converted, 4 skipped, 0 failed")
	_, err := os.Stat(filepath.Join(inPlace, "downlight.ldt"))
	assert.NoError(t, err)

	code, _, errOut = execute(t, "batch", src)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--format must be ldt or ies")

	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.ldt"), []byte("junk"), 0644))
	code, out, errOut = execute(t, "batch", "--format", "ies", "--overwrite", "-o", dst, src)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "failed")
	assert.Contains(t, errOut, "1 file(s) failed")
}

func TestCatalogCommands(t *testing.T) {
	dir := fixtureDir(t)
	db := filepath.Join(t.TempDir(), "cat.db")

	code, out, errOut := execute(t, "catalog", "--db", db, "add",
		filepath.Join(dir, testutil.VerticalLDT), filepath.Join(dir, testutil.DownlightIES))
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[0])[0]

	code, out, _ = execute(t, "catalog", "--db", db, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Downlight 100")
	assert.Contains(t, out, "DL-200")

	code, out, _ = execute(t, "catalog", "--db", db, "list", "--format", "ies")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "Downlight 100")

	code, out, _ = execute(t, "catalog", "--db", db, "show", id)
	require.Equal(t, 0, code)
	assert.Equal(t, testutil.Fixture(t, testutil.VerticalLDT), out)

	exportDir := filepath.Join(t.TempDir(), "export")
	code, out, _ = execute(t, "catalog", "--db", db, "export", "--format", "ies", "-o", exportDir, id)
	require.Equal(t, 0, code)
	assert.Equal(t, ".ies", filepath.Ext(strings.TrimSpace(out)))

	code, out, _ = execute(t, "catalog", "--db", db, "schema")
	require.Equal(t, 0, code)
	assert.Equal(t, "schema version 2\n", out)

	code, _, errOut = execute(t, "catalog", "--db", db, "add", filepath.Join(dir, testutil.VerticalLDT))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already in catalog")

	code, _, _ = execute(t, "catalog", "--db", db, "rm", id)
	assert.Equal(t, 0, code)
	code, _, errOut = execute(t, "catalog", "--db", db, "rm", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, _, errOut = execute(t, "catalog", "--db", db, "show", "not-a-uuid")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid entry id")

	code, _, errOut = execute(t, "catalog", "--db", db, "vacuum")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unknown catalog subcommand")
}

func TestReportAndPlot(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(dir, testutil.QuadrantLDT)

	code, out, errOut := execute(t, "report", "--step", "10", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "<html")

	htmlPath := filepath.Join(dir, "report.html")
	code, _, _ = execute(t, "report", "-o", htmlPath, "--title", "Quadrant report", path)
	require.Equal(t, 0, code)
	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quadrant report")

	pngPath := filepath.Join(dir, "plot.png")
	code, _, errOut = execute(t, "plot", "-o", pngPath, "--width", "4", "--height", "3", path)
	require.Equal(t, 0, code, errOut)
	data, err = os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	code, _, errOut = execute(t, "plot", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "-o is required")
}
