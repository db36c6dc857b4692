package report

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/photometric/internal/diagram"
	"github.com/banshee-data/photometric/internal/photometry"
)

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func angleLabels(vs []float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = formatAngle(v)
	}
	return out
}

func title(l *photometry.Luminaire, o Options) string {
	if o.Title != "" {
		return o.Title
	}
	info := l.Info()
	if info.LuminaireName != "" {
		return info.LuminaireName
	}
	return "Luminaire"
}

func echartsTheme(t diagram.Theme) string {
	if t == diagram.ThemeDark {
		return "dark"
	}
	return "white"
}

func hexColors(cs []color.RGBA) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = diagram.Hex(c)
	}
	return out
}

// WriteHTML writes a self-contained page with an intensity curve chart and a
// C/gamma heat map. The echarts script is loaded from its default CDN.
func WriteHTML(w io.Writer, l *photometry.Luminaire, o Options) error {
	name := title(l, o)
	info := l.Info()
	subtitle := fmt.Sprintf("Imax %.1f cd/klm, flux %.0f lm, %s",
		info.MaxIntensity, info.TotalLuminousFlux, photometry.SymmetryName(info.Symmetry))

	page := components.NewPage()
	page.PageTitle = name
	page.AddCharts(curveChart(l, o, name, subtitle), heatmapChart(l, o, name))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func curveChart(l *photometry.Luminaire, o Options, name, subtitle string) *charts.Line {
	curves := SampleCurves(l, o)
	colors := hexColors(diagram.CurveColors(o.Theme, len(curves.Curves)))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Theme: echartsTheme(o.Theme), Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "gamma (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cd/klm", NameLocation: "middle", NameGap: 45}),
	)
	line.SetXAxis(angleLabels(curves.Gammas))
	for i, c := range curves.Curves {
		data := make([]opts.LineData, len(c.Values))
		for j, v := range c.Values {
			data[j] = opts.LineData{Value: v}
		}
		line.AddSeries("C"+formatAngle(c.C), data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: colors[i]}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[i]}),
		)
	}
	return line
}

func heatmapChart(l *photometry.Luminaire, o Options, name string) *charts.HeatMap {
	grid := SampleGrid(l, o)
	data := make([]opts.HeatMapData, 0, len(grid.Cs)*len(grid.Gammas))
	for i := range grid.Cs {
		for j, v := range grid.Values[i] {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, v}})
		}
	}

	peak := l.MaxIntensity()
	if peak <= 0 {
		peak = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Theme: echartsTheme(o.Theme), Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Intensity by C and gamma"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "C (deg)", NameLocation: "middle", NameGap: 25, Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "gamma (deg)", NameLocation: "middle", NameGap: 35, Type: "category", Data: angleLabels(grid.Gammas)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			InRange:    &opts.VisualMapInRange{Color: hexColors(diagram.RampColors(o.Theme))},
		}),
	)
	hm.SetXAxis(angleLabels(grid.Cs))
	hm.AddSeries("cd/klm", data)
	return hm
}
