package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/photometric/internal/diagram"
	"github.com/banshee-data/photometric/internal/photometry"
)

// Default plot size.
const (
	DefaultPlotWidth  = 10 * vg.Inch
	DefaultPlotHeight = 6 * vg.Inch
)

// PlotFormats lists the file extensions SavePlot accepts.
var PlotFormats = []string{".png", ".svg", ".pdf"}

// NewCurvePlot builds the intensity-versus-gamma plot SavePlot writes.
func NewCurvePlot(l *photometry.Luminaire, o Options) (*plot.Plot, error) {
	curves := SampleCurves(l, o)
	colors := diagram.CurveColors(o.Theme, len(curves.Curves))

	p := plot.New()
	p.Title.Text = title(l, o)
	p.X.Label.Text = "gamma (deg)"
	p.Y.Label.Text = "cd/klm"
	p.X.Min, p.X.Max = 0, diagram.GammaExtent(l)
	p.Y.Min = 0

	for i, c := range curves.Curves {
		pts := make(plotter.XYs, len(curves.Gammas))
		for j, g := range curves.Gammas {
			pts[j] = plotter.XY{X: g, Y: c.Values[j]}
		}
		ln, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		ln.Color = colors[i]
		ln.Width = vg.Points(1.5)
		p.Add(ln)
		p.Legend.Add("C"+formatAngle(c.C), ln)
	}
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if o.Theme == diagram.ThemeDark {
		bg, fg := diagram.ThemeColors(o.Theme)
		p.BackgroundColor = bg
		p.Title.TextStyle.Color = fg
		p.Legend.TextStyle.Color = fg
		for _, ax := range []*plot.Axis{&p.X, &p.Y} {
			ax.LineStyle.Color = fg
			ax.Label.TextStyle.Color = fg
			ax.Tick.Label.Color = fg
			ax.Tick.LineStyle.Color = fg
		}
	}
	return p, nil
}

// SavePlot writes the curve plot to path; the extension picks PNG, SVG or
// PDF. Non-positive sizes fall back to the defaults.
func SavePlot(l *photometry.Luminaire, path string, width, height vg.Length, o Options) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, f := range PlotFormats {
		supported = supported || f == ext
	}
	if !supported {
		return fmt.Errorf("unsupported plot format %q (want one of %s)", ext, strings.Join(PlotFormats, ", "))
	}
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}

	p, err := NewCurvePlot(l, o)
	if err != nil {
		return err
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
