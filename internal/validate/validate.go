// Package validate checks a luminaire model for structural errors and
// photometric plausibility. Findings are reported, never returned as errors.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/photometric/internal/photometry"
)

// Severity orders findings. The ordinals are part of the external contract.
type Severity int

const (
	SeverityInfo    Severity = 0
	SeverityWarning Severity = 1
	SeverityError   Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return photometry.UnknownName
	}
}

// Warning is a single validation finding.
type Warning struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
}

// DefaultFluxTolerance is the allowed gap, in percentage points, between a
// computed flux ratio and the one declared in the file header.
const DefaultFluxTolerance = 5.0

// Options tune the plausibility checks.
type Options struct {
	FluxTolerance float64
}

// DefaultOptions returns the options Run uses.
func DefaultOptions() Options {
	return Options{FluxTolerance: DefaultFluxTolerance}
}

// Subject is the read-only view of a model the checks need.
// *photometry.Luminaire satisfies it.
type Subject interface {
	Symmetry() photometry.Symmetry
	TypeIndicator() photometry.TypeIndicator
	CAngles() []float64
	GAngles() []float64
	Intensities() [][]float64
	LampSets() []photometry.LampSet
	Info() photometry.Info
}

// Run validates l with DefaultOptions.
func Run(l *photometry.Luminaire) []Warning {
	return Validate(l, DefaultOptions())
}

// Validate runs every check against s. The result lists errors first, then
// warnings, then info, each group in check order. The same input always
// yields the same output.
func Validate(s Subject, opts Options) []Warning {
	if opts.FluxTolerance <= 0 || math.IsNaN(opts.FluxTolerance) {
		opts.FluxTolerance = DefaultFluxTolerance
	}
	v := &validator{s: s, opts: opts, info: s.Info()}
	for _, check := range checks {
		check(v)
	}
	sort.SliceStable(v.out, func(i, j int) bool {
		return v.out[i].Severity > v.out[j].Severity
	})
	return v.out
}

type validator struct {
	s    Subject
	opts Options
	info photometry.Info
	out  []Warning
}

func (v *validator) add(sev Severity, code, format string, args ...any) {
	v.out = append(v.out, Warning{Code: code, Message: fmt.Sprintf(format, args...), Severity: sev})
}

var checks = []func(*validator){
	checkCOrder,
	checkGOrder,
	checkIntensityValues,
	checkDimensions,
	checkTypeSymmetry,
	checkLightOutputRatio,
	checkDownwardFlux,
	checkLORCeiling,
	checkCStart,
	checkGRange,
	checkAllZero,
	checkLamps,
	checkCSpacing,
	checkMissingFields,
}

func nonDecreasing(a []float64) (int, bool) {
	for i := 1; i < len(a); i++ {
		if a[i] < a[i-1] {
			return i, false
		}
	}
	return 0, true
}

func checkCOrder(v *validator) {
	if i, ok := nonDecreasing(v.s.CAngles()); !ok {
		v.add(SeverityError, "E001", "C angles decrease at index %d", i)
	}
}

func checkGOrder(v *validator) {
	if i, ok := nonDecreasing(v.s.GAngles()); !ok {
		v.add(SeverityError, "E002", "gamma angles decrease at index %d", i)
	}
}

func checkIntensityValues(v *validator) {
	for i, row := range v.s.Intensities() {
		for j, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
				v.add(SeverityError, "E003", "intensity at C-plane %d, gamma %d is %g", i, j, x)
				return
			}
		}
	}
}

func checkDimensions(v *validator) {
	nc, ng := len(v.s.CAngles()), len(v.s.GAngles())
	if v.info.NumCPlanes != nc || v.info.NumGPlanes != ng {
		v.add(SeverityError, "E004", "declared %d x %d planes, angle lists hold %d x %d",
			v.info.NumCPlanes, v.info.NumGPlanes, nc, ng)
		return
	}
	table := v.s.Intensities()
	if len(table) != nc {
		v.add(SeverityError, "E004", "intensity table has %d C-planes, expected %d", len(table), nc)
		return
	}
	for i, row := range table {
		if len(row) != ng {
			v.add(SeverityError, "E004", "C-plane %d has %d intensities, expected %d", i, len(row), ng)
			return
		}
	}
}

func checkTypeSymmetry(v *validator) {
	typ, sym := v.s.TypeIndicator(), v.s.Symmetry()
	switch {
	case typ == photometry.PointSourceSymmetric && sym != photometry.SymmetryVerticalAxis:
		v.add(SeverityWarning, "W001", "type %q expects vertical axis symmetry, got %q", typ, sym)
	case sym == photometry.SymmetryVerticalAxis && typ != photometry.PointSourceSymmetric:
		v.add(SeverityWarning, "W001", "vertical axis symmetry expects type %q, got %q", photometry.PointSourceSymmetric, typ)
	case typ == photometry.Linear && sym == photometry.SymmetryBothPlanes:
		v.add(SeverityWarning, "W001", "linear luminaire declared with quadrant symmetry")
	}
}

// ratiosComparable reports whether the header ratios mean anything. A
// declared value of zero is treated as blank by the callers.
func ratiosComparable(info photometry.Info) bool {
	return info.RatiosDeclared && !info.AbsolutePhotometry
}

func checkLightOutputRatio(v *validator) {
	if !ratiosComparable(v.info) || v.info.DeclaredLightOutputRatio <= 0 {
		return
	}
	diff := math.Abs(v.info.LightOutputRatio - v.info.DeclaredLightOutputRatio)
	if diff > v.opts.FluxTolerance {
		v.add(SeverityWarning, "W002", "computed light output ratio %.1f%% differs from declared %.1f%% by %.1f points",
			v.info.LightOutputRatio, v.info.DeclaredLightOutputRatio, diff)
	}
}

func checkDownwardFlux(v *validator) {
	if !ratiosComparable(v.info) || v.info.DeclaredDownwardFluxFraction <= 0 {
		return
	}
	diff := math.Abs(v.info.DownwardFluxFraction - v.info.DeclaredDownwardFluxFraction)
	if diff > v.opts.FluxTolerance {
		v.add(SeverityWarning, "W003", "computed downward flux fraction %.1f%% differs from declared %.1f%% by %.1f points",
			v.info.DownwardFluxFraction, v.info.DeclaredDownwardFluxFraction, diff)
	}
}

func checkLORCeiling(v *validator) {
	if v.info.AbsolutePhotometry {
		return
	}
	if v.info.LightOutputRatio > 100 {
		v.add(SeverityWarning, "W004", "light output ratio %.1f%% exceeds 100%%", v.info.LightOutputRatio)
	}
}

func checkCStart(v *validator) {
	c := v.s.CAngles()
	if len(c) == 0 {
		return
	}
	want, _ := photometry.StoredCRange(v.s.Symmetry())
	if c[0] != want {
		v.add(SeverityWarning, "W005", "C-planes start at %g, %q stores from %g", c[0], v.s.Symmetry(), want)
	}
}

func checkGRange(v *validator) {
	g := v.s.GAngles()
	if len(g) == 0 {
		return
	}
	first, last := g[0], g[len(g)-1]
	if first != 0 || (last != 90 && last != 180) {
		v.add(SeverityWarning, "W006", "gamma range %g..%g does not cover 0..90 or 0..180", first, last)
	}
}

func checkAllZero(v *validator) {
	for _, row := range v.s.Intensities() {
		for _, x := range row {
			if x != 0 {
				return
			}
		}
	}
	v.add(SeverityWarning, "W007", "all intensities are zero")
}

func checkLamps(v *validator) {
	sets := v.s.LampSets()
	if len(sets) == 0 {
		v.add(SeverityWarning, "W008", "no lamp sets")
		return
	}
	if v.info.AbsolutePhotometry {
		return
	}
	var flux float64
	for _, ls := range sets {
		flux += ls.TotalLuminousFlux
	}
	if flux <= 0 {
		v.add(SeverityWarning, "W008", "total lamp flux is %g lm", flux)
	}
}

const spacingTolerance = 1e-3

func checkCSpacing(v *validator) {
	step := v.info.CPlaneDistance
	c := v.s.CAngles()
	if step <= 0 || len(c) < 2 {
		return
	}
	for i := 1; i < len(c); i++ {
		if d := c[i] - c[i-1]; math.Abs(d-step) > spacingTolerance {
			v.add(SeverityWarning, "W009", "C-plane spacing %g at index %d differs from declared %g", d, i, step)
			return
		}
	}
}

func checkMissingFields(v *validator) {
	for _, f := range []struct {
		code, name, value string
	}{
		{"I001", "luminaire name", v.info.LuminaireName},
		{"I002", "identification", v.info.Identification},
		{"I003", "luminaire number", v.info.LuminaireNumber},
		{"I004", "measurement report number", v.info.MeasurementReportNumber},
		{"I005", "date/user", v.info.DateUser},
	} {
		if f.value == "" {
			v.add(SeverityInfo, f.code, "missing %s", f.name)
		}
	}
}
