package photometry

import (
	"math"
	"sort"
)

// StoredCRange returns the C-angle interval a model of the given symmetry
// stores. Everything else on the circle is reconstructed by mirroring.
func StoredCRange(s Symmetry) (lo, hi float64) {
	switch s {
	case SymmetryVerticalAxis:
		return 0, 0
	case SymmetryPlaneC0C180:
		return 0, 180
	case SymmetryPlaneC90C270:
		return 90, 270
	case SymmetryBothPlanes:
		return 0, 90
	default:
		return 0, 360
	}
}

// StoredPlaneRange returns the 1-based, inclusive positions in the full list
// of mc C-angles that an LDT file stores intensities for.
func StoredPlaneRange(s Symmetry, mc int) (first, last int) {
	switch s {
	case SymmetryVerticalAxis:
		return 1, 1
	case SymmetryPlaneC0C180:
		return 1, mc/2 + 1
	case SymmetryPlaneC90C270:
		return mc/4 + 1, 3*mc/4 + 1
	case SymmetryBothPlanes:
		return 1, mc/4 + 1
	default:
		return 1, mc
	}
}

// FullCircleAngles returns the stored C-angles reflected over the whole
// circle, sorted in [0,360) without duplicates.
func FullCircleAngles(s Symmetry, stored []float64) []float64 {
	refs := expandCircle(s, stored)
	out := make([]float64, len(refs))
	for i, r := range refs {
		out[i] = r.angle
	}
	return out
}

// expandCircle reflects the stored C-planes over the whole circle according
// to the symmetry class. The result is sorted by angle in [0,360) with
// duplicates removed.
func expandCircle(sym Symmetry, cAngles []float64) []planeRef {
	refs := make([]planeRef, 0, 4*len(cAngles))
	add := func(a float64, i int) {
		refs = append(refs, planeRef{angle: normalizeC(a), index: i})
	}
	for i, a := range cAngles {
		add(a, i)
		switch sym {
		case SymmetryPlaneC0C180:
			add(360-a, i)
		case SymmetryPlaneC90C270:
			add(180-a, i)
		case SymmetryBothPlanes:
			add(180-a, i)
			add(180+a, i)
			add(360-a, i)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].angle < refs[j].angle })
	out := refs[:0]
	for _, r := range refs {
		if len(out) > 0 && out[len(out)-1].angle == r.angle {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalizeC maps any angle into [0,360).
func normalizeC(c float64) float64 {
	c = math.Mod(c, 360)
	if c < 0 {
		c += 360
	}
	if c >= 360 {
		c = 0
	}
	return c
}

// FoldCAngle maps any C angle onto the range the symmetry class stores. It
// does not look at a grid; the sampler clamps afterwards.
func FoldCAngle(sym Symmetry, c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		c = 0
	}
	c = normalizeC(c)
	switch sym {
	case SymmetryVerticalAxis:
		return 0
	case SymmetryPlaneC0C180:
		if c > 180 {
			c = 360 - c
		}
	case SymmetryPlaneC90C270:
		if c < 90 {
			c = 180 - c
		} else if c > 270 {
			c = 540 - c
		}
	case SymmetryBothPlanes:
		if c > 180 {
			c = 360 - c
		}
		if c > 90 {
			c = 180 - c
		}
	}
	return c
}

