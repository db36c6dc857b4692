package testutil

import (
	"strings"
	"testing"
)

func TestFixturesLoad(t *testing.T) {
	t.Parallel()

	for _, name := range FixtureNames() {
		text := Fixture(t, name)
		if strings.TrimSpace(text) == "" {
			t.Errorf("fixture %s is empty", name)
		}
	}
}

func TestIESFixturesHaveTilt(t *testing.T) {
	t.Parallel()

	for _, name := range []string{DownlightIES, QuadrantIES} {
		if !strings.Contains(Fixture(t, name), "TILT=") {
			t.Errorf("fixture %s has no TILT line", name)
		}
	}
}

func TestInDeltaSlice(t *testing.T) {
	t.Parallel()

	InDeltaSlice(t, []float64{1, 1000, 0}, []float64{1 + 1e-12, 1000 * (1 + 1e-12), 0}, 1e-9)
}
