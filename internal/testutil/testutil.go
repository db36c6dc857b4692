// Package testutil provides shared test utilities and fixtures.
//
// The fixtures are small LDT and IES files covering each symmetry class the
// codecs care about. They are embedded so tests in any package can load them
// without knowing this package's location on disk.
package testutil

import (
	"embed"
	"testing"
)

//go:embed testdata/*.ldt testdata/*.ies
var fixtures embed.FS

// Fixture names.
const (
	VerticalLDT  = "vertical.ldt"  // vertical axis, one value per line
	C0C180LDT    = "c0c180.ldt"    // C0-C180 plane, several values per line
	QuadrantLDT  = "quadrant.ldt"  // both planes, CRLF endings and decimal commas
	DownlightIES = "downlight.ies" // LM-63-2002, vertical axis, [MORE] continuation
	QuadrantIES  = "quadrant.ies"  // LM-63-1991, TILT=INCLUDE, feet
)

// Fixture returns the contents of a named fixture file.
func Fixture(t testing.TB, name string) string {
	t.Helper()
	b, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return string(b)
}

// FixtureNames lists every embedded fixture.
func FixtureNames() []string {
	return []string{VerticalLDT, C0C180LDT, QuadrantLDT, DownlightIES, QuadrantIES}
}

// InDeltaSlice fails the test if got and want differ in length or any pair
// differs by more than rel relative to the larger magnitude.
func InDeltaSlice(t testing.TB, want, got []float64, rel float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		scale := max(abs(want[i]), abs(got[i]), 1)
		if abs(want[i]-got[i]) > rel*scale {
			t.Errorf("[%d] = %v, want %v (rel tolerance %g)", i, got[i], want[i], rel)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
