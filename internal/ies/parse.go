// Package ies reads and writes IESNA LM-63 photometric files.
package ies

import (
	"math"
	"strings"
	"unicode"

	"github.com/banshee-data/photometric/internal/photometry"
)

// Format is the format tag carried by ParseErrors from this package.
const Format = "IES"

const (
	unitsFeet   = 1
	unitsMeters = 2

	photometricTypeC = 1

	mmPerFoot  = 304.8
	mmPerMeter = 1000.0
)

type token struct {
	text string
	line int
}

type tokenStream struct {
	toks []token
	pos  int
	last int // line of the TILT statement, used when the stream runs dry
}

func (s *tokenStream) next(field string) (token, error) {
	if s.pos >= len(s.toks) {
		line := s.last
		if len(s.toks) > 0 {
			line = s.toks[len(s.toks)-1].line
		}
		return token{}, photometry.NewParseError(Format, line, "unexpected end of data, expected %s", field)
	}
	s.pos++
	return s.toks[s.pos-1], nil
}

func (s *tokenStream) number(field string) (float64, error) {
	t, err := s.next(field)
	if err != nil {
		return 0, err
	}
	v, err := photometry.ParseDecimal(t.text)
	if err != nil {
		return 0, &photometry.ParseError{Format: Format, Line: t.line, Msg: "invalid " + field, Err: err}
	}
	return v, nil
}

func (s *tokenStream) integer(field string) (int, int, error) {
	t, err := s.next(field)
	if err != nil {
		return 0, 0, err
	}
	v, err := photometry.ParseWholeNumber(t.text)
	if err != nil {
		return 0, t.line, &photometry.ParseError{Format: Format, Line: t.line, Msg: "invalid " + field, Err: err}
	}
	return v, t.line, nil
}

func (s *tokenStream) remaining() int { return len(s.toks) - s.pos }

// need fails when fewer than n tokens are left for a count declared at line.
func (s *tokenStream) need(n, line int, field string) error {
	if n > s.remaining() {
		return photometry.NewParseError(Format, line,
			"declared %d %s values but only %d values remain", n, field, s.remaining())
	}
	return nil
}

func (s *tokenStream) numbers(n int, field string) ([]float64, error) {
	line := s.last
	if s.pos < len(s.toks) {
		line = s.toks[s.pos].line
	}
	if err := s.need(n, line, field); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		v, err := s.number(field)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func splitTokens(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
}

// Parse reads IES LM-63 text (1986, 1991, 1995 and 2002 variants) into a
// luminaire model. Candela values are converted to cd/klm using the rated
// lamp lumens; files with lumens of -1 keep absolute candela and set
// AbsolutePhotometry.
func Parse(text string) (*photometry.Luminaire, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var keywords []photometry.Keyword
	tiltLine, tilt := 0, ""
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		upper := strings.ToUpper(line)
		switch {
		case i == 0 && strings.HasPrefix(upper, "IESNA"):
		case strings.HasPrefix(upper, "TILT"):
			eq := strings.IndexByte(line, '=')
			if eq < 0 {
				return nil, photometry.NewParseError(Format, i+1, "malformed TILT line %q", line)
			}
			tilt = strings.TrimSpace(line[eq+1:])
			tiltLine = i + 1
		case strings.HasPrefix(line, "["):
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, photometry.NewParseError(Format, i+1, "unterminated keyword %q", line)
			}
			name := strings.ToUpper(strings.TrimSpace(line[1:end]))
			value := strings.TrimSpace(line[end+1:])
			if name == "MORE" && len(keywords) > 0 {
				prev := &keywords[len(keywords)-1]
				prev.Value += "\n" + value
				continue
			}
			keywords = append(keywords, photometry.Keyword{Name: name, Value: value})
		}
		if tiltLine > 0 {
			break
		}
	}
	if tiltLine == 0 {
		return nil, photometry.NewParseError(Format, 0, "missing TILT line")
	}

	ts := &tokenStream{last: tiltLine}
	for j := tiltLine; j < len(lines); j++ {
		for _, f := range splitTokens(lines[j]) {
			ts.toks = append(ts.toks, token{text: f, line: j + 1})
		}
	}

	if strings.EqualFold(tilt, "INCLUDE") {
		if err := skipTiltData(ts); err != nil {
			return nil, err
		}
	}

	d, err := readPhotometry(ts)
	if err != nil {
		return nil, err
	}
	if ts.pos < len(ts.toks) {
		t := ts.toks[ts.pos]
		return nil, photometry.NewParseError(Format, t.line, "unexpected trailing data %q", t.text)
	}
	applyKeywords(d, keywords)

	l, err := photometry.New(*d)
	if err != nil {
		return nil, &photometry.ParseError{Format: Format, Msg: "inconsistent data", Err: err}
	}
	return l, nil
}

// skipTiltData consumes an inline tilt table: lamp geometry, pair count,
// angles and multiplying factors.
func skipTiltData(ts *tokenStream) error {
	if _, _, err := ts.integer("lamp-to-luminaire geometry"); err != nil {
		return err
	}
	n, line, err := ts.integer("number of tilt angles")
	if err != nil {
		return err
	}
	if n < 0 {
		return photometry.NewParseError(Format, line, "negative number of tilt angles %d", n)
	}
	if err := ts.need(2*n, line, "tilt angle and multiplying factor"); err != nil {
		return err
	}
	if _, err := ts.numbers(n, "tilt angle"); err != nil {
		return err
	}
	_, err = ts.numbers(n, "tilt multiplying factor")
	return err
}

func readPhotometry(ts *tokenStream) (*photometry.Data, error) {
	lamps, _, err := ts.integer("number of lamps")
	if err != nil {
		return nil, err
	}
	lumens, err := ts.number("lumens per lamp")
	if err != nil {
		return nil, err
	}
	mult, err := ts.number("candela multiplier")
	if err != nil {
		return nil, err
	}
	nv, nvLine, err := ts.integer("number of vertical angles")
	if err != nil {
		return nil, err
	}
	if nv < 1 {
		return nil, photometry.NewParseError(Format, nvLine, "number of vertical angles %d must be at least 1", nv)
	}
	nh, nhLine, err := ts.integer("number of horizontal angles")
	if err != nil {
		return nil, err
	}
	if nh < 1 {
		return nil, photometry.NewParseError(Format, nhLine, "number of horizontal angles %d must be at least 1", nh)
	}
	ptype, line, err := ts.integer("photometric type")
	if err != nil {
		return nil, err
	}
	if ptype != photometricTypeC {
		return nil, photometry.NewParseError(Format, line, "photometric type %d not supported, only type C (1)", ptype)
	}
	units, line, err := ts.integer("units type")
	if err != nil {
		return nil, err
	}
	var scale float64
	switch units {
	case unitsFeet:
		scale = mmPerFoot
	case unitsMeters:
		scale = mmPerMeter
	default:
		return nil, photometry.NewParseError(Format, line, "units type %d out of range 1-2", units)
	}
	dims, err := ts.numbers(3, "luminaire dimension")
	if err != nil {
		return nil, err
	}
	if _, err := ts.number("ballast factor"); err != nil {
		return nil, err
	}
	if _, err := ts.number("ballast-lamp photometric factor"); err != nil {
		return nil, err
	}
	watts, err := ts.number("input watts")
	if err != nil {
		return nil, err
	}
	// Angles and candela values must all be present before anything sized by
	// the header counts is allocated.
	if err := ts.need(nv+nh+nv*nh, nhLine, "angle and candela"); err != nil {
		return nil, err
	}
	vAngles, err := ts.numbers(nv, "vertical angle")
	if err != nil {
		return nil, err
	}
	hAngles, err := ts.numbers(nh, "horizontal angle")
	if err != nil {
		return nil, err
	}

	d := &photometry.Data{
		Width:            dims[0] * scale,
		Length:           dims[1] * scale,
		Height:           dims[2] * scale,
		ConversionFactor: 1,
		Symmetry:         inferSymmetry(hAngles),
		TypeIndicator:    photometry.PointSourceOther,
		CAngles:          hAngles,
		GAngles:          vAngles,
		CPlaneDistance:   uniformStep(hAngles),
		GPlaneDistance:   uniformStep(vAngles),
	}
	if d.Symmetry == photometry.SymmetryVerticalAxis {
		d.TypeIndicator = photometry.PointSourceSymmetric
	}

	factor := mult
	lampSet := photometry.LampSet{NumLamps: lamps, WattageWithBallast: watts}
	if lumens > 0 {
		n := lamps
		if n < 1 {
			n = 1
		}
		factor = mult * 1000 / (float64(n) * lumens)
		lampSet.TotalLuminousFlux = float64(n) * lumens
	} else {
		d.AbsolutePhotometry = true
	}
	d.LampSets = []photometry.LampSet{lampSet}

	d.Intensities = make([][]float64, nh)
	for h := range d.Intensities {
		row, err := ts.numbers(nv, "candela value")
		if err != nil {
			return nil, err
		}
		for v := range row {
			row[v] *= factor
		}
		d.Intensities[h] = row
	}
	return d, nil
}

// inferSymmetry derives the symmetry class from the horizontal angle range.
func inferSymmetry(h []float64) photometry.Symmetry {
	first, last := h[0], h[len(h)-1]
	switch {
	case len(h) == 1 && first == 0:
		return photometry.SymmetryVerticalAxis
	case first == 0 && last == 90:
		return photometry.SymmetryBothPlanes
	case first == 0 && last == 180:
		return photometry.SymmetryPlaneC0C180
	case first == 90 && last == 270:
		return photometry.SymmetryPlaneC90C270
	default:
		return photometry.SymmetryNone
	}
}

// uniformStep returns the spacing of an evenly spaced sequence, or 0.
func uniformStep(a []float64) float64 {
	if len(a) < 2 {
		return 0
	}
	step := a[1] - a[0]
	for i := 2; i < len(a); i++ {
		if math.Abs(a[i]-a[i-1]-step) > 1e-6 {
			return 0
		}
	}
	return step
}

func applyKeywords(d *photometry.Data, kws []photometry.Keyword) {
	d.Keywords = kws
	ls := &d.LampSets[0]
	for _, kw := range kws {
		v := strings.ReplaceAll(kw.Value, "\n", " ")
		switch kw.Name {
		case "MANUFAC":
			d.Identification = v
		case "LUMINAIRE":
			d.LuminaireName = v
		case "LUMCAT":
			d.LuminaireNumber = v
		case "TEST":
			d.MeasurementReportNumber = v
		case "ISSUEDATE", "DATE":
			d.DateUser = v
		case "_FILENAME":
			d.FileName = v
		case "LAMP":
			ls.LampType = v
		case "_CCT", "COLORTEMP":
			ls.ColorAppearance = v
		case "_CRI":
			ls.ColorRenderingGroup = v
		}
	}
}
