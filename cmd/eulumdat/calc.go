package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/banshee-data/photometric/internal/photometry"
)

// calcResult is the JSON form of the calc command. Sections not requested
// are omitted.
type calcResult struct {
	Beam        *photometry.Beam        `json:"beam,omitempty"`
	CIEFluxCode *photometry.CIEFluxCode `json:"cie_flux_code,omitempty"`
	ZonalLumens *zonalResult            `json:"zonal_lumens,omitempty"`
}

type zonalResult struct {
	Zones      photometry.ZonalLumens `json:"zones"`
	Cumulative [6]float64             `json:"cumulative"`
	Downward   float64                `json:"downward"`
	Upward     float64                `json:"upward"`
}

func (a *app) writeJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return a.writeOutput("", append(out, '\n'))
}

func (a *app) handleCalc(args []string) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	kind := fs.String("type", "all", "Calculation: beam, cie, zonal or all")
	asJSON := fs.Bool("json", false, "Print the results as JSON")
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	var beam, cie, zonal bool
	switch *kind {
	case "all":
		beam, cie, zonal = true, true, true
	case "beam":
		beam = true
	case "cie":
		cie = true
	case "zonal":
		zonal = true
	default:
		return fmt.Errorf("unknown calculation %q (want beam, cie, zonal or all)", *kind)
	}

	path := fs.Arg(0)
	l, err := loadLuminaire(path)
	if err != nil {
		return err
	}

	var res calcResult
	if beam {
		b := l.Beam()
		res.Beam = &b
	}
	if cie {
		c := l.CIEFluxCode()
		res.CIEFluxCode = &c
	}
	if zonal {
		z := zonalResult{Zones: l.ZonalLumens30()}
		for i := range z.Cumulative {
			z.Cumulative[i] = l.CumulativeFlux(float64(i+1) * 30)
		}
		z.Downward, z.Upward = z.Zones.Downward(), z.Zones.Upward()
		res.ZonalLumens = &z
	}
	if *asJSON {
		return a.writeJSON(res)
	}

	w := a.stdout
	fmt.Fprintf(w, "File: %s\n", path)
	if b := res.Beam; b != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Beam Characteristics ===")
		fmt.Fprintf(w, "Beam angle (50%%):  %.1f° (C0-C180 %.1f°, C90-C270 %.1f°)\n", b.BeamAngle, b.BeamC0, b.BeamC90)
		fmt.Fprintf(w, "Field angle (10%%): %.1f° (C0-C180 %.1f°, C90-C270 %.1f°)\n", b.FieldAngle, b.FieldC0, b.FieldC90)
		fmt.Fprintf(w, "Cut-off angle:     %.1f°\n", b.CutOffAngle)
	}
	if c := res.CIEFluxCode; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== CIE Flux Code ===")
		fmt.Fprintf(w, "Code:              %s\n", c)
		fmt.Fprintf(w, "N1 (0-90°):        %.1f%%\n", c.N1)
		fmt.Fprintf(w, "N2 (0-60°):        %.1f%%\n", c.N2)
		fmt.Fprintf(w, "N3 (0-40°):        %.1f%%\n", c.N3)
		fmt.Fprintf(w, "N4 (90-180°):      %.1f%%\n", c.N4)
		fmt.Fprintf(w, "N5 (90-120°):      %.1f%%\n", c.N5)
	}
	if z := res.ZonalLumens; z != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Zonal Lumens (30° zones) ===")
		for i, v := range z.Zones {
			fmt.Fprintf(w, "%3d-%3d°:          %5.1f%% (cumulative %5.1f%%)\n", i*30, (i+1)*30, v, z.Cumulative[i])
		}
		fmt.Fprintf(w, "Downward:          %.1f%%\n", z.Downward)
		fmt.Fprintf(w, "Upward:            %.1f%%\n", z.Upward)
	}
	return nil
}

func (a *app) handleBUG(args []string) error {
	fs := flag.NewFlagSet("bug", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the rating and zone lumens as JSON")
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	path := fs.Arg(0)
	l, err := loadLuminaire(path)
	if err != nil {
		return err
	}
	zones := l.BUGZones()
	rating := zones.Rating()

	if *asJSON {
		return a.writeJSON(struct {
			Rating photometry.BUGRating `json:"rating"`
			Zones  photometry.BUGZones  `json:"zones"`
		}{rating, zones})
	}

	w := a.stdout
	fmt.Fprintf(w, "File: %s\n\n", path)
	fmt.Fprintf(w, "Rating:     %s\n", rating)
	fmt.Fprintf(w, "Backlight:  BL=%.1f BM=%.1f BH=%.1f BVH=%.1f lm\n", zones.BL, zones.BM, zones.BH, zones.BVH)
	fmt.Fprintf(w, "Forward:    FL=%.1f FM=%.1f FH=%.1f FVH=%.1f lm\n", zones.FL, zones.FM, zones.FH, zones.FVH)
	fmt.Fprintf(w, "Uplight:    UL=%.1f UH=%.1f lm\n", zones.UL, zones.UH)
	return nil
}
