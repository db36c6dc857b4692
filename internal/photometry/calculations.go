package photometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// planeRef places a stored C-plane at an angle on the full circle. Mirrored
// planes share the index of the stored plane they were reflected from.
type planeRef struct {
	angle float64
	index int
}

func (l *Luminaire) computeDerived() {
	var peak float64
	for _, row := range l.d.Intensities {
		if len(row) > 0 {
			peak = math.Max(peak, floats.Max(row))
		}
	}
	l.maxIntensity = peak

	total := make([]float64, len(l.d.Intensities))
	down := make([]float64, len(l.d.Intensities))
	for i, row := range l.d.Intensities {
		total[i], down[i] = gammaIntegrals(l.d.GAngles, row)
	}

	if l.d.Symmetry == SymmetryVerticalAxis {
		l.integratedFlux = 2 * math.Pi * total[0]
		l.downwardFlux = 2 * math.Pi * down[0]
		return
	}
	circle := expandCircle(l.d.Symmetry, l.d.CAngles)
	l.integratedFlux = integrateCircle(circle, total)
	l.downwardFlux = integrateCircle(circle, down)
}

// gammaIntegrals returns ∫I(γ)·sinγ dγ over the whole gamma range and over
// the part at or below 90°. gDeg is in degrees.
func gammaIntegrals(gDeg, row []float64) (total, down float64) {
	if len(gDeg) < 2 {
		return 0, 0
	}
	g := degToRad(gDeg)
	f := make([]float64, len(g))
	for j := range g {
		f[j] = row[j] * math.Sin(g[j])
	}
	total = integrate.Trapezoidal(g, f)

	n := sort.Search(len(gDeg), func(j int) bool { return gDeg[j] > 90 })
	x := append([]float64(nil), g[:n]...)
	y := append([]float64(nil), f[:n]...)
	if n > 0 && n < len(g) && gDeg[n-1] < 90 {
		t := (90 - gDeg[n-1]) / (gDeg[n] - gDeg[n-1])
		x = append(x, math.Pi/2)
		y = append(y, f[n-1]+t*(f[n]-f[n-1]))
	}
	if len(x) >= 2 {
		down = integrate.Trapezoidal(x, y)
	}
	return total, down
}

// integrateCircle integrates per-plane values over 0..2π with the trapezoid
// rule, closing the gap between the last plane and the first.
func integrateCircle(circle []planeRef, perPlane []float64) float64 {
	if len(circle) == 0 {
		return 0
	}
	x := make([]float64, 0, len(circle)+1)
	y := make([]float64, 0, len(circle)+1)
	for _, p := range circle {
		x = append(x, p.angle*math.Pi/180)
		y = append(y, perPlane[p.index])
	}
	x = append(x, x[0]+2*math.Pi)
	y = append(y, y[0])
	return integrate.Trapezoidal(x, y)
}

func degToRad(deg []float64) []float64 {
	out := make([]float64, len(deg))
	for i, d := range deg {
		out[i] = d * math.Pi / 180
	}
	return out
}

// Info is a flat snapshot of a luminaire's header and derived values.
type Info struct {
	Identification          string  `json:"identification"`
	LuminaireName           string  `json:"luminaire_name"`
	LuminaireNumber         string  `json:"luminaire_number"`
	FileName                string  `json:"file_name"`
	DateUser                string  `json:"date_user"`
	MeasurementReportNumber string  `json:"measurement_report_number"`
	Symmetry                int     `json:"symmetry"`
	TypeIndicator           int     `json:"type_indicator"`
	NumCPlanes              int     `json:"num_c_planes"`
	NumGPlanes              int     `json:"num_g_planes"`
	FullCPlaneCount         int     `json:"full_c_plane_count"`
	CPlaneDistance          float64 `json:"c_plane_distance"`
	GPlaneDistance          float64 `json:"g_plane_distance"`
	Length                  float64 `json:"length"`
	Width                   float64 `json:"width"`
	Height                  float64 `json:"height"`
	LuminousAreaLength      float64 `json:"luminous_area_length"`
	LuminousAreaWidth       float64 `json:"luminous_area_width"`
	ConversionFactor        float64 `json:"conversion_factor"`
	TiltAngle               float64 `json:"tilt_angle"`
	AbsolutePhotometry      bool    `json:"absolute_photometry"`

	DeclaredDownwardFluxFraction float64 `json:"declared_downward_flux_fraction"`
	DeclaredLightOutputRatio     float64 `json:"declared_light_output_ratio"`
	RatiosDeclared               bool    `json:"ratios_declared"`

	MaxIntensity         float64 `json:"max_intensity"`
	TotalLuminousFlux    float64 `json:"total_luminous_flux"`
	TotalLampFlux        float64 `json:"total_lamp_flux"`
	DownwardFluxFraction float64 `json:"downward_flux_fraction"`
	LightOutputRatio     float64 `json:"light_output_ratio"`
	TotalWattage         float64 `json:"total_wattage"`
	LuminousEfficacy     float64 `json:"luminous_efficacy"`
	NumLampSets          int     `json:"num_lamp_sets"`
}

// Info returns a snapshot of the header fields and derived scalars.
func (l *Luminaire) Info() Info {
	d := &l.d
	return Info{
		Identification:               d.Identification,
		LuminaireName:                d.LuminaireName,
		LuminaireNumber:              d.LuminaireNumber,
		FileName:                     d.FileName,
		DateUser:                     d.DateUser,
		MeasurementReportNumber:      d.MeasurementReportNumber,
		Symmetry:                     int(d.Symmetry),
		TypeIndicator:                int(d.TypeIndicator),
		NumCPlanes:                   len(d.CAngles),
		NumGPlanes:                   len(d.GAngles),
		FullCPlaneCount:              d.FullCPlaneCount,
		CPlaneDistance:               d.CPlaneDistance,
		GPlaneDistance:               d.GPlaneDistance,
		Length:                       d.Length,
		Width:                        d.Width,
		Height:                       d.Height,
		LuminousAreaLength:           d.LuminousAreaLength,
		LuminousAreaWidth:            d.LuminousAreaWidth,
		ConversionFactor:             d.ConversionFactor,
		TiltAngle:                    d.TiltAngle,
		AbsolutePhotometry:           d.AbsolutePhotometry,
		DeclaredDownwardFluxFraction: d.DeclaredDownwardFluxFraction,
		DeclaredLightOutputRatio:     d.DeclaredLightOutputRatio,
		RatiosDeclared:               d.RatiosDeclared,
		MaxIntensity:                 l.maxIntensity,
		TotalLuminousFlux:            l.TotalLuminousFlux(),
		TotalLampFlux:                l.TotalLampFlux(),
		DownwardFluxFraction:         l.DownwardFluxFraction(),
		LightOutputRatio:             l.LightOutputRatio(),
		TotalWattage:                 l.TotalWattage(),
		LuminousEfficacy:             l.LuminousEfficacy(),
		NumLampSets:                  len(d.LampSets),
	}
}
