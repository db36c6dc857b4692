package ies

import (
	"strconv"
	"strings"

	"github.com/banshee-data/photometric/internal/photometry"
)

const valuesPerLine = 10

// Keywords the exporter derives from model fields. Other keywords from the
// source file are written after them in their original order.
var mappedKeywords = map[string]bool{
	"TEST": true, "MANUFAC": true, "LUMCAT": true, "LUMINAIRE": true,
	"ISSUEDATE": true, "DATE": true, "_FILENAME": true, "LAMP": true,
	"_CCT": true, "COLORTEMP": true, "_CRI": true,
}

// Export writes the model as IESNA LM-63-2002 text with TILT=NONE and
// dimensions in meters. Intensities are converted back to candela using the
// total lamp flux; a model without lamp flux is written as absolute
// photometry.
func Export(l *photometry.Luminaire) string {
	d := l.Data()

	var b strings.Builder
	b.WriteString("IESNA:LM-63-2002\n")
	for _, kw := range exportKeywords(&d) {
		for i, part := range strings.Split(kw.Value, "\n") {
			name := kw.Name
			if i > 0 {
				name = "MORE"
			}
			b.WriteString("[" + name + "]")
			if part != "" {
				b.WriteString(" " + part)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("TILT=NONE\n")

	lamps := 0
	for _, ls := range d.LampSets {
		if ls.NumLamps > 0 {
			lamps += ls.NumLamps
		} else if ls.NumLamps < 0 {
			lamps -= ls.NumLamps
		}
	}
	if lamps < 1 {
		lamps = 1
	}
	flux := l.TotalLampFlux()
	lumens, scale := -1.0, 1.0
	if !d.AbsolutePhotometry && flux > 0 {
		lumens = flux / float64(lamps)
		scale = flux / 1000
	}

	writeLine(&b, []string{
		strconv.Itoa(lamps),
		num(lumens),
		"1",
		strconv.Itoa(len(d.GAngles)),
		strconv.Itoa(len(d.CAngles)),
		strconv.Itoa(photometricTypeC),
		strconv.Itoa(unitsMeters),
		num(d.Width / mmPerMeter),
		num(d.Length / mmPerMeter),
		num(d.Height / mmPerMeter),
	})
	writeLine(&b, []string{"1.0", "1.0", num(l.TotalWattage())})
	writeValues(&b, d.GAngles, 1)
	writeValues(&b, d.CAngles, 1)
	for _, row := range d.Intensities {
		writeValues(&b, row, scale)
	}
	return b.String()
}

func exportKeywords(d *photometry.Data) []photometry.Keyword {
	var lamp photometry.LampSet
	if len(d.LampSets) > 0 {
		lamp = d.LampSets[0]
	}
	kws := []photometry.Keyword{
		{Name: "TEST", Value: d.MeasurementReportNumber},
		{Name: "MANUFAC", Value: d.Identification},
	}
	for _, kw := range []photometry.Keyword{
		{Name: "LUMCAT", Value: d.LuminaireNumber},
		{Name: "LUMINAIRE", Value: d.LuminaireName},
		{Name: "ISSUEDATE", Value: d.DateUser},
		{Name: "_FILENAME", Value: d.FileName},
		{Name: "LAMP", Value: lamp.LampType},
		{Name: "_CCT", Value: lamp.ColorAppearance},
		{Name: "_CRI", Value: lamp.ColorRenderingGroup},
	} {
		if kw.Value != "" {
			kws = append(kws, kw)
		}
	}
	for _, kw := range d.Keywords {
		if !mappedKeywords[kw.Name] {
			kws = append(kws, kw)
		}
	}
	return kws
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeLine(b *strings.Builder, fields []string) {
	b.WriteString(strings.Join(fields, " "))
	b.WriteString("\n")
}

// writeValues writes vals multiplied by scale, wrapped to keep lines short.
func writeValues(b *strings.Builder, vals []float64, scale float64) {
	fields := make([]string, 0, valuesPerLine)
	for i, v := range vals {
		fields = append(fields, num(v*scale))
		if len(fields) == valuesPerLine || i == len(vals)-1 {
			writeLine(b, fields)
			fields = fields[:0]
		}
	}
}
