// Package eulumdat reads and writes EULUMDAT (.ldt) photometric files.
package eulumdat

import (
	"strconv"
	"strings"

	"github.com/banshee-data/photometric/internal/photometry"
)

// Format is the format tag carried by ParseErrors from this package.
const Format = "LDT"

// Max number of lamp sets a file may declare.
const maxLampSets = 20

type lineReader struct {
	lines []string
	pos   int
}

func newLineReader(text string) *lineReader {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return &lineReader{lines: lines}
}

// next returns the next line and its 1-based number.
func (r *lineReader) next(field string) (string, int, error) {
	if r.pos >= len(r.lines) {
		return "", r.pos + 1, photometry.NewParseError(Format, r.pos+1, "unexpected end of file, expected %s", field)
	}
	r.pos++
	return r.lines[r.pos-1], r.pos, nil
}

func (r *lineReader) str(field string) (string, error) {
	s, _, err := r.next(field)
	return strings.TrimSpace(s), err
}

func (r *lineReader) number(field string) (float64, error) {
	s, n, err := r.next(field)
	if err != nil {
		return 0, err
	}
	return parseNumber(s, n, field)
}

func (r *lineReader) integer(field string) (int, int, error) {
	s, n, err := r.next(field)
	if err != nil {
		return 0, n, err
	}
	v, err := parseInt(s, n, field)
	return v, n, err
}

// parseNumber accepts a finite decimal number, with a comma allowed as the
// only decimal separator.
func parseNumber(s string, line int, field string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := photometry.ParseDecimal(s)
	if err != nil {
		return 0, &photometry.ParseError{Format: Format, Line: line, Msg: "invalid " + field, Err: err}
	}
	return v, nil
}

func parseInt(s string, line int, field string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := photometry.ParseWholeNumber(s)
	if err != nil {
		return 0, &photometry.ParseError{Format: Format, Line: line, Msg: "invalid " + field, Err: err}
	}
	return v, nil
}

type token struct {
	text string
	line int
}

// Parse reads EULUMDAT text into a luminaire model. Errors are
// *photometry.ParseError values; no partial model is ever returned.
func Parse(text string) (*photometry.Luminaire, error) {
	r := newLineReader(text)
	var d photometry.Data
	var err error

	if d.Identification, err = r.str("company identification"); err != nil {
		return nil, err
	}

	ityp, line, err := r.integer("type indicator")
	if err != nil {
		return nil, err
	}
	switch ityp {
	case 1:
		d.TypeIndicator = photometry.PointSourceSymmetric
	case 2:
		d.TypeIndicator = photometry.Linear
	case 0, 3:
		d.TypeIndicator = photometry.PointSourceOther
	default:
		return nil, photometry.NewParseError(Format, line, "type indicator %d out of range 0-3", ityp)
	}

	isym, line, err := r.integer("symmetry indicator")
	if err != nil {
		return nil, err
	}
	d.Symmetry = photometry.Symmetry(isym)
	if !d.Symmetry.Valid() {
		return nil, photometry.NewParseError(Format, line, "symmetry indicator %d out of range 0-4", isym)
	}

	mc, line, err := r.integer("number of C-planes")
	if err != nil {
		return nil, err
	}
	if mc < 1 {
		return nil, photometry.NewParseError(Format, line, "num_c_planes = %d, must be at least 1", mc)
	}
	d.FullCPlaneCount = mc
	if d.CPlaneDistance, err = r.number("distance between C-planes"); err != nil {
		return nil, err
	}

	ng, line, err := r.integer("number of gamma angles")
	if err != nil {
		return nil, err
	}
	if ng < 1 {
		return nil, photometry.NewParseError(Format, line, "num_g_planes = %d, must be at least 1", ng)
	}
	if d.GPlaneDistance, err = r.number("distance between gamma angles"); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst  *string
		name string
	}{
		{&d.MeasurementReportNumber, "measurement report number"},
		{&d.LuminaireName, "luminaire name"},
		{&d.LuminaireNumber, "luminaire number"},
		{&d.FileName, "file name"},
		{&d.DateUser, "date/user"},
	} {
		if *f.dst, err = r.str(f.name); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		dst  *float64
		name string
	}{
		{&d.Length, "length"},
		{&d.Width, "width"},
		{&d.Height, "height"},
		{&d.LuminousAreaLength, "luminous area length"},
		{&d.LuminousAreaWidth, "luminous area width"},
		{&d.LuminousAreaHeights[0], "luminous area height C0"},
		{&d.LuminousAreaHeights[1], "luminous area height C90"},
		{&d.LuminousAreaHeights[2], "luminous area height C180"},
		{&d.LuminousAreaHeights[3], "luminous area height C270"},
		{&d.DeclaredDownwardFluxFraction, "downward flux fraction"},
		{&d.DeclaredLightOutputRatio, "light output ratio"},
		{&d.ConversionFactor, "conversion factor"},
		{&d.TiltAngle, "tilt angle"},
	} {
		if *f.dst, err = r.number(f.name); err != nil {
			return nil, err
		}
	}
	d.RatiosDeclared = true

	nSets, line, err := r.integer("number of lamp sets")
	if err != nil {
		return nil, err
	}
	if nSets < 0 || nSets > maxLampSets {
		return nil, photometry.NewParseError(Format, line, "number of lamp sets %d out of range 0-%d", nSets, maxLampSets)
	}
	if d.LampSets, err = readLampSets(r, nSets); err != nil {
		return nil, err
	}
	for _, ls := range d.LampSets {
		if ls.NumLamps < 0 {
			d.AbsolutePhotometry = true
		}
	}

	for i := range d.DirectRatios {
		if d.DirectRatios[i], err = r.number("direct ratio " + strconv.Itoa(i+1)); err != nil {
			return nil, err
		}
	}

	if err := readNumericBlock(r, &d, mc, ng); err != nil {
		return nil, err
	}

	l, err := photometry.New(d)
	if err != nil {
		return nil, &photometry.ParseError{Format: Format, Msg: "inconsistent data", Err: err}
	}
	return l, nil
}

func readLampSets(r *lineReader, n int) ([]photometry.LampSet, error) {
	sets := make([]photometry.LampSet, n)
	for i := range sets {
		ls := &sets[i]
		prefix := "lamp set " + strconv.Itoa(i+1) + " "
		var err error
		if ls.NumLamps, _, err = r.integer(prefix + "number of lamps"); err != nil {
			return nil, err
		}
		if ls.LampType, err = r.str(prefix + "type"); err != nil {
			return nil, err
		}
		if ls.TotalLuminousFlux, err = r.number(prefix + "luminous flux"); err != nil {
			return nil, err
		}
		if ls.ColorAppearance, err = r.str(prefix + "color appearance"); err != nil {
			return nil, err
		}
		if ls.ColorRenderingGroup, err = r.str(prefix + "color rendering group"); err != nil {
			return nil, err
		}
		if ls.WattageWithBallast, err = r.number(prefix + "wattage"); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// readNumericBlock consumes the C-angles, gamma angles and intensities. The
// block is tokenized on whitespace so any line layout is accepted, but the
// token count must match the header exactly.
func readNumericBlock(r *lineReader, d *photometry.Data, mc, ng int) error {
	first, last := photometry.StoredPlaneRange(d.Symmetry, mc)
	if last > mc || first > last {
		return photometry.NewParseError(Format, 4,
			"num_c_planes = %d is too small for symmetry %d", mc, int(d.Symmetry))
	}
	stored := last - first + 1

	startLine := r.pos + 1
	var toks []token
	for r.pos < len(r.lines) {
		line, n, _ := r.next("")
		for _, f := range strings.Fields(line) {
			toks = append(toks, token{text: f, line: n})
		}
	}

	if mc > len(toks) || ng > len(toks) || stored > len(toks) {
		return photometry.NewParseError(Format, startLine,
			"numeric block has %d values, fewer than declared (num_c_planes = %d, num_g_planes = %d)",
			len(toks), mc, ng)
	}
	want := mc + ng + stored*ng
	if len(toks) != want {
		return photometry.NewParseError(Format, startLine,
			"numeric block has %d values, expected %d (num_c_planes = %d, num_g_planes = %d, stored C-planes = %d)",
			len(toks), want, mc, ng, stored)
	}

	vals := make([]float64, len(toks))
	for i, t := range toks {
		field := "intensity"
		switch {
		case i < mc:
			field = "C-angle"
		case i < mc+ng:
			field = "gamma angle"
		}
		v, err := parseNumber(t.text, t.line, field)
		if err != nil {
			return err
		}
		vals[i] = v
	}

	d.AllCAngles = vals[:mc:mc]
	d.CAngles = append([]float64(nil), vals[first-1:last]...)
	d.GAngles = vals[mc : mc+ng : mc+ng]
	d.Intensities = make([][]float64, stored)
	off := mc + ng
	for i := range d.Intensities {
		d.Intensities[i] = vals[off+i*ng : off+(i+1)*ng : off+(i+1)*ng]
	}
	return nil
}
