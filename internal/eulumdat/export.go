package eulumdat

import (
	"strconv"
	"strings"

	"github.com/banshee-data/photometric/internal/photometry"
)

// Export writes the model as EULUMDAT text. Only the planes the symmetry
// class stores are written; numbers use the shortest form that parses back
// to the same float64.
func Export(l *photometry.Luminaire) string {
	d := l.Data()
	mc := exportPlaneCount(&d)

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	num := func(v float64) { line(FormatNumber(v)) }

	line(d.Identification)
	line(strconv.Itoa(typeIndicatorCode(d.TypeIndicator)))
	line(strconv.Itoa(int(d.Symmetry)))
	line(strconv.Itoa(mc))
	num(d.CPlaneDistance)
	line(strconv.Itoa(len(d.GAngles)))
	num(d.GPlaneDistance)
	line(d.MeasurementReportNumber)
	line(d.LuminaireName)
	line(d.LuminaireNumber)
	line(d.FileName)
	line(d.DateUser)
	for _, v := range []float64{d.Length, d.Width, d.Height, d.LuminousAreaLength, d.LuminousAreaWidth} {
		num(v)
	}
	for _, v := range d.LuminousAreaHeights {
		num(v)
	}

	dff, lor := d.DeclaredDownwardFluxFraction, d.DeclaredLightOutputRatio
	if !d.RatiosDeclared {
		dff, lor = l.DownwardFluxFraction(), l.LightOutputRatio()
	}
	num(dff)
	num(lor)
	num(d.ConversionFactor)
	num(d.TiltAngle)

	line(strconv.Itoa(len(d.LampSets)))
	for _, ls := range d.LampSets {
		n := ls.NumLamps
		if d.AbsolutePhotometry && n > 0 {
			n = -n
		}
		line(strconv.Itoa(n))
		line(ls.LampType)
		num(ls.TotalLuminousFlux)
		line(ls.ColorAppearance)
		line(ls.ColorRenderingGroup)
		num(ls.WattageWithBallast)
	}
	for _, v := range d.DirectRatios {
		num(v)
	}

	for _, c := range fullCAngles(&d, mc) {
		num(c)
	}
	for _, g := range d.GAngles {
		num(g)
	}
	for _, row := range d.Intensities {
		for _, v := range row {
			num(v)
		}
	}
	return b.String()
}

// FormatNumber renders v in the shortest decimal form that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func typeIndicatorCode(t photometry.TypeIndicator) int {
	switch t {
	case photometry.PointSourceSymmetric:
		return 1
	case photometry.Linear:
		return 2
	default:
		return 3
	}
}

// exportPlaneCount picks an Mc whose stored range holds exactly the planes in
// the model, preferring the declared count.
func exportPlaneCount(d *photometry.Data) int {
	n := len(d.CAngles)
	fits := func(mc int) bool {
		if mc < 1 {
			return false
		}
		first, last := photometry.StoredPlaneRange(d.Symmetry, mc)
		return last <= mc && last-first+1 == n
	}
	if fits(d.FullCPlaneCount) {
		return d.FullCPlaneCount
	}
	var mc int
	switch d.Symmetry {
	case photometry.SymmetryVerticalAxis:
		mc = 1
	case photometry.SymmetryPlaneC0C180, photometry.SymmetryPlaneC90C270:
		mc = 2 * (n - 1)
	case photometry.SymmetryBothPlanes:
		mc = 4 * (n - 1)
	default:
		mc = n
	}
	if mc < 1 {
		mc = 1
	}
	return mc
}

// fullCAngles returns the mc C-angles for the header list. The stored planes
// always appear at their LDT positions.
func fullCAngles(d *photometry.Data, mc int) []float64 {
	first, _ := photometry.StoredPlaneRange(d.Symmetry, mc)
	var all []float64
	switch {
	case len(d.AllCAngles) == mc:
		all = append([]float64(nil), d.AllCAngles...)
	case d.Symmetry == photometry.SymmetryNone:
		all = append([]float64(nil), d.CAngles...)
	default:
		if circle := photometry.FullCircleAngles(d.Symmetry, d.CAngles); len(circle) == mc {
			all = circle
		} else {
			all = make([]float64, mc)
			for i := range all {
				all[i] = float64(i) * 360 / float64(mc)
			}
		}
	}
	for i, c := range d.CAngles {
		if first-1+i < len(all) {
			all[first-1+i] = c
		}
	}
	return all
}
