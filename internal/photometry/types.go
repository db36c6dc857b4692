// Package photometry holds the normalized luminaire model shared by the LDT and
// IES codecs, the validator and the diagram renderers, together with the
// derived photometric scalars and the symmetry-aware intensity sampler.
package photometry

// Symmetry declares which parts of the C-plane circle are mirrored and
// therefore not stored. The ordinals are part of the external contract.
type Symmetry int

const (
	SymmetryNone         Symmetry = 0
	SymmetryVerticalAxis Symmetry = 1
	SymmetryPlaneC0C180  Symmetry = 2
	SymmetryPlaneC90C270 Symmetry = 3
	SymmetryBothPlanes   Symmetry = 4
)

// UnknownName is returned by the display helpers for out-of-range ordinals.
const UnknownName = "Unknown"

var symmetryNames = [...]string{
	SymmetryNone:         "None (Full 360°)",
	SymmetryVerticalAxis: "Vertical Axis (C0 only)",
	SymmetryPlaneC0C180:  "Plane C0-C180",
	SymmetryPlaneC90C270: "Plane C90-C270",
	SymmetryBothPlanes:   "Both Planes (Quadrant)",
}

// Valid reports whether s is one of the five defined symmetry classes.
func (s Symmetry) Valid() bool {
	return s >= SymmetryNone && s <= SymmetryBothPlanes
}

// String returns the display name of the symmetry class.
func (s Symmetry) String() string {
	return SymmetryName(int(s))
}

// SymmetryName maps a symmetry ordinal to its display text. Ordinals outside
// 0-4 yield UnknownName rather than an error.
func SymmetryName(ordinal int) string {
	if ordinal < 0 || ordinal >= len(symmetryNames) {
		return UnknownName
	}
	return symmetryNames[ordinal]
}

// TypeIndicator is the photometric type of the luminaire.
type TypeIndicator int

const (
	PointSourceSymmetric TypeIndicator = 0
	Linear               TypeIndicator = 1
	PointSourceOther     TypeIndicator = 2
)

var typeIndicatorNames = [...]string{
	PointSourceSymmetric: "Point Source (Symmetric)",
	Linear:               "Linear",
	PointSourceOther:     "Point Source (Other)",
}

// Valid reports whether t is a defined type indicator.
func (t TypeIndicator) Valid() bool {
	return t >= PointSourceSymmetric && t <= PointSourceOther
}

func (t TypeIndicator) String() string {
	return TypeIndicatorName(int(t))
}

// TypeIndicatorName maps a type indicator ordinal to its display text.
func TypeIndicatorName(ordinal int) string {
	if ordinal < 0 || ordinal >= len(typeIndicatorNames) {
		return UnknownName
	}
	return typeIndicatorNames[ordinal]
}

// LampSet describes one group of identical lamps fitted to the luminaire.
type LampSet struct {
	NumLamps            int     `json:"num_lamps"`
	LampType            string  `json:"lamp_type"`
	TotalLuminousFlux   float64 `json:"total_luminous_flux"` // lm, nominal
	ColorAppearance     string  `json:"color_appearance"`
	ColorRenderingGroup string  `json:"color_rendering_group"`
	WattageWithBallast  float64 `json:"wattage_with_ballast"` // W
}
