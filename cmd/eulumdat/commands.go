package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/photometric/internal/batch"
	"github.com/banshee-data/photometric/internal/diagram"
	"github.com/banshee-data/photometric/internal/engine"
	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/fsutil"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/report"
	"github.com/banshee-data/photometric/internal/validate"
)

// errValidationFailed is returned by validate --strict when any finding is a
// warning or an error.
var errValidationFailed = errors.New("strict validation failed")

// load reads and parses a photometric file into a fresh arena.
func load(path string) (*engine.Arena, engine.Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.Handle{}, err
	}
	a := engine.NewArena()
	h, err := a.Parse(path, string(data))
	if err != nil {
		return nil, engine.Handle{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, h, nil
}

func loadLuminaire(path string) (*photometry.Luminaire, error) {
	a, h, err := load(path)
	if err != nil {
		return nil, err
	}
	return a.Luminaire(h)
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	logf("wrote %s (%d bytes)", path, len(data))
	return nil
}

func (a *app) themeFlags(fs *flag.FlagSet) func() (diagram.Theme, error) {
	name := fs.String("theme", a.cfg.GetTheme(), "Colour theme: light or dark")
	dark := fs.Bool("dark", false, "Shorthand for --theme dark")
	return func() (diagram.Theme, error) {
		if *dark {
			return diagram.ThemeDark, nil
		}
		return diagram.ParseTheme(*name)
	}
}

func formatAngles(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

func (a *app) handleInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "Show angle and intensity tables")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	path := fs.Arg(0)

	arena, h, err := load(path)
	if err != nil {
		return err
	}
	info, err := arena.Info(h)
	if err != nil {
		return err
	}
	sets, err := arena.LampSets(h)
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := json.MarshalIndent(struct {
			engine.LuminaireInfo
			LampSets []engine.LampSetInfo `json:"lamp_sets"`
		}{info, sets}, "", "  ")
		if err != nil {
			return err
		}
		return a.writeOutput("", append(out, '\n'))
	}

	w := a.stdout
	fmt.Fprintf(w, "File: %s (%s)\n\n", path, info.Format)
	fmt.Fprintln(w, "=== Luminaire Information ===")
	fmt.Fprintf(w, "Name:           %s\n", info.LuminaireName)
	fmt.Fprintf(w, "Number:         %s\n", info.LuminaireNumber)
	fmt.Fprintf(w, "Manufacturer:   %s\n", info.Identification)
	fmt.Fprintf(w, "Date:           %s\n", info.DateUser)
	fmt.Fprintf(w, "Report:         %s\n\n", info.MeasurementReportNumber)
	fmt.Fprintln(w, "=== Dimensions (mm) ===")
	fmt.Fprintf(w, "Length:         %.1f\n", info.Length)
	fmt.Fprintf(w, "Width:          %.1f\n", info.Width)
	fmt.Fprintf(w, "Height:         %.1f\n\n", info.Height)
	fmt.Fprintln(w, "=== Photometric Data ===")
	fmt.Fprintf(w, "Type:           %s\n", info.TypeIndicatorName)
	fmt.Fprintf(w, "Symmetry:       %s\n", info.SymmetryName)
	fmt.Fprintf(w, "C-planes:       %d (%g° spacing, %d in full circle)\n", info.NumCPlanes, info.CPlaneDistance, info.FullCPlaneCount)
	fmt.Fprintf(w, "Gamma angles:   %d (%g° spacing)\n\n", info.NumGPlanes, info.GPlaneDistance)
	fmt.Fprintln(w, "=== Lamp Data ===")
	for _, s := range sets {
		if len(sets) > 1 {
			fmt.Fprintf(w, "Lamp set %d:\n", s.Index+1)
		}
		fmt.Fprintf(w, "Type:           %s\n", s.LampType)
		fmt.Fprintf(w, "Quantity:       %d\n", s.NumLamps)
		fmt.Fprintf(w, "Luminous flux:  %.0f lm\n", s.TotalLuminousFlux)
		fmt.Fprintf(w, "Color temp:     %s\n", s.ColorAppearance)
		fmt.Fprintf(w, "CRI:            %s\n", s.ColorRenderingGroup)
		fmt.Fprintf(w, "Wattage:        %.1f W\n", s.WattageWithBallast)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Calculated Values ===")
	fmt.Fprintf(w, "Total flux:     %.0f lm\n", info.TotalLuminousFlux)
	fmt.Fprintf(w, "Total wattage:  %.1f W\n", info.TotalWattage)
	fmt.Fprintf(w, "Efficacy:       %.1f lm/W\n", info.LuminousEfficacy)
	fmt.Fprintf(w, "Max intensity:  %.1f cd/klm\n", info.MaxIntensity)
	fmt.Fprintf(w, "DFF:            %.1f%%\n", info.DownwardFluxFraction)
	fmt.Fprintf(w, "LORL:           %.1f%%\n", info.LightOutputRatio)

	if *verbose {
		l, err := arena.Luminaire(h)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== C-plane Angles ===")
		fmt.Fprintln(w, formatAngles(l.CAngles()))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Gamma Angles ===")
		fmt.Fprintln(w, formatAngles(l.GAngles()))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Intensity Data (cd/klm) ===")
		for i, c := range l.CAngles() {
			row := make([]float64, l.NumGPlanes())
			for j := range row {
				row[j] = l.Intensity(i, j)
			}
			fmt.Fprintf(w, "C=%5.1f°: %s\n", c, formatAngles(row))
		}
	}
	return nil
}

func (a *app) handleValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "Exit non-zero on any warning or error")
	tolerance := fs.Float64("flux-tolerance", a.cfg.GetFluxTolerance(), "Allowed gap between computed and declared flux ratios, percentage points")
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	path := fs.Arg(0)

	arena, h, err := load(path)
	if err != nil {
		return err
	}
	warnings, err := arena.ValidateWith(h, validate.Options{FluxTolerance: *tolerance})
	if err != nil {
		return err
	}

	if len(warnings) == 0 {
		fmt.Fprintf(a.stdout, "%s is valid\n", path)
		return nil
	}
	fmt.Fprintf(a.stdout, "Validation results for %s:\n\n", path)
	serious := 0
	for _, w := range warnings {
		fmt.Fprintln(a.stdout, w)
		if w.Severity >= validate.SeverityWarning {
			serious++
		}
	}
	fmt.Fprintf(a.stdout, "\nFound %d finding(s), %d warning(s) or error(s)\n", len(warnings), serious)

	if *strict && serious > 0 {
		return fmt.Errorf("%w: %d warning(s) or error(s)", errValidationFailed, serious)
	}
	return nil
}

// exportFor picks the exporter from an output file extension.
func exportFor(path string) (func(engine.Handle, *engine.Arena) (string, error), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ldt":
		return func(h engine.Handle, a *engine.Arena) (string, error) { return a.ExportLDT(h) }, nil
	case ".ies":
		return func(h engine.Handle, a *engine.Arena) (string, error) { return a.ExportIES(h) }, nil
	}
	return nil, fmt.Errorf("cannot tell output format from %q (want .ldt or .ies)", path)
}

func (a *app) handleConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing output file")
	if err := a.parseFlags(fs, args, "input", "output"); err != nil {
		return err
	}
	input, output := fs.Arg(0), fs.Arg(1)

	export, err := exportFor(output)
	if err != nil {
		return err
	}
	if _, err := os.Stat(output); err == nil && !*force {
		return fmt.Errorf("%s exists (use --force to overwrite)", output)
	}
	arena, h, err := load(input)
	if err != nil {
		return err
	}
	text, err := export(h, arena)
	if err != nil {
		return err
	}
	if err := a.writeOutput(output, []byte(text)); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Converted %s -> %s\n", input, output)
	return nil
}

func (a *app) handleDiagram(args []string) error {
	fs := flag.NewFlagSet("diagram", flag.ContinueOnError)
	kind := fs.String("type", "polar", "Diagram type: polar, cartesian, butterfly or heatmap")
	output := fs.String("o", "", "Output SVG file (default stdout)")
	width := fs.Int("width", a.cfg.GetDiagramWidth(), "Width in pixels")
	height := fs.Int("height", a.cfg.GetDiagramHeight(), "Height in pixels")
	maxCurves := fs.Int("max-curves", a.cfg.GetMaxCurves(), "Cartesian: maximum number of C-plane curves")
	tilt := fs.Float64("tilt", a.cfg.GetButterflyTilt(), "Butterfly: view tilt in degrees")
	theme := a.themeFlags(fs)
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	th, err := theme()
	if err != nil {
		return err
	}

	arena, h, err := load(fs.Arg(0))
	if err != nil {
		return err
	}
	var svg string
	switch *kind {
	case "polar":
		svg, err = arena.PolarSVG(h, *width, *height, th)
	case "cartesian":
		svg, err = arena.CartesianSVG(h, *width, *height, th, *maxCurves)
	case "butterfly":
		svg, err = arena.ButterflySVG(h, *width, *height, th, *tilt)
	case "heatmap":
		svg, err = arena.HeatmapSVG(h, *width, *height, th)
	default:
		return fmt.Errorf("unknown diagram type %q (want polar, cartesian, butterfly or heatmap)", *kind)
	}
	if err != nil {
		return err
	}
	return a.writeOutput(*output, []byte(svg))
}

func (a *app) handleSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	c := fs.Float64("c", 0, "C angle in degrees")
	g := fs.Float64("g", 0, "Gamma angle in degrees")
	normalized := fs.Bool("normalized", false, "Divide by the maximum intensity")
	table := fs.Bool("table", false, "Print sampled curves instead of a single value")
	step := fs.Float64("step", a.cfg.GetReportSampleStep(), "Table: gamma step in degrees")
	maxCurves := fs.Int("max-curves", a.cfg.GetMaxCurves(), "Table: maximum number of C-plane curves")
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}

	arena, h, err := load(fs.Arg(0))
	if err != nil {
		return err
	}

	if *table {
		l, err := arena.Luminaire(h)
		if err != nil {
			return err
		}
		curves := report.SampleCurves(l, report.Options{Step: *step, MaxCurves: *maxCurves})
		fmt.Fprint(a.stdout, "gamma")
		for _, cv := range curves.Curves {
			fmt.Fprintf(a.stdout, "\tC%g", cv.C)
		}
		fmt.Fprintln(a.stdout)
		for j, gamma := range curves.Gammas {
			fmt.Fprintf(a.stdout, "%g", gamma)
			for _, cv := range curves.Curves {
				v := cv.Values[j]
				if *normalized && l.MaxIntensity() > 0 {
					v /= l.MaxIntensity()
				}
				fmt.Fprintf(a.stdout, "\t%.4f", v)
			}
			fmt.Fprintln(a.stdout)
		}
		return nil
	}

	var v float64
	if *normalized {
		v, err = arena.SampleIntensityNormalized(h, *c, *g)
	} else {
		v, err = arena.SampleIntensity(h, *c, *g)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%.4f\n", v)
	return nil
}

func (a *app) handleBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	format := fs.String("format", "", "Target format: ldt or ies (required)")
	output := fs.String("o", "", "Output directory (default: the input directory)")
	recursive := fs.Bool("recursive", false, "Process subdirectories")
	overwrite := fs.Bool("overwrite", false, "Overwrite existing files")
	if err := a.parseFlags(fs, args, "dir"); err != nil {
		return err
	}
	target := strings.ToUpper(*format)
	if target != eulumdat.Format && target != ies.Format {
		fmt.Fprintln(a.stderr, "Error: --format must be ldt or ies")
		fs.PrintDefaults()
		return errUsage
	}
	src := fs.Arg(0)
	dst := *output
	if dst == "" {
		dst = src
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if timeout := a.cfg.GetBatchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sum, err := batch.New(fsutil.OSFileSystem{}).Run(ctx, src, dst, batch.Options{
		Target:    target,
		Recursive: *recursive,
		Overwrite: *overwrite,
	})
	for _, r := range sum.Results {
		switch r.Outcome {
		case batch.Failed:
			fmt.Fprintf(a.stdout, "%-9s %s: %v\n", r.Outcome, r.Source, r.Err)
		default:
			fmt.Fprintf(a.stdout, "%-9s %s -> %s\n", r.Outcome, r.Source, r.Dest)
		}
	}
	fmt.Fprintf(a.stdout, "\n%d converted, %d skipped, %d failed in %s\n", sum.Converted, sum.Skipped, sum.Failed, sum.Elapsed.Round(time.Millisecond))
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to convert", sum.Failed)
	}
	return nil
}

func (a *app) reportOptions(fs *flag.FlagSet) func() (report.Options, error) {
	title := fs.String("title", "", "Title (default: the luminaire name)")
	step := fs.Float64("step", a.cfg.GetReportSampleStep(), "Sampling step in degrees")
	maxCurves := fs.Int("max-curves", a.cfg.GetMaxCurves(), "Maximum number of C-plane curves")
	theme := a.themeFlags(fs)
	return func() (report.Options, error) {
		th, err := theme()
		if err != nil {
			return report.Options{}, err
		}
		return report.Options{Title: *title, Theme: th, MaxCurves: *maxCurves, Step: *step}, nil
	}
}

func (a *app) handleReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	output := fs.String("o", "", "Output HTML file (default stdout)")
	options := a.reportOptions(fs)
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	o, err := options()
	if err != nil {
		return err
	}
	l, err := loadLuminaire(fs.Arg(0))
	if err != nil {
		return err
	}

	if *output == "" || *output == "-" {
		return report.WriteHTML(a.stdout, l, o)
	}
	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, l, o); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logf("wrote %s", *output)
	return nil
}

func (a *app) handlePlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	output := fs.String("o", "", "Output file: .png, .svg or .pdf (required)")
	width := fs.Float64("width", 10, "Width in inches")
	height := fs.Float64("height", 6, "Height in inches")
	options := a.reportOptions(fs)
	if err := a.parseFlags(fs, args, "file"); err != nil {
		return err
	}
	if *output == "" {
		fmt.Fprintln(a.stderr, "Error: -o is required")
		fs.PrintDefaults()
		return errUsage
	}
	o, err := options()
	if err != nil {
		return err
	}
	l, err := loadLuminaire(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := report.SavePlot(l, *output, vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch, o); err != nil {
		return err
	}
	logf("wrote %s", *output)
	return nil
}
