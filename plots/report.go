package plots

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"bitbucket.org/mcmclab/rwmetro/study"
)

// WriteReport renders an interactive HTML page with the ESJD and
// acceptance rate curves of the given sweep results.
func WriteReport(w io.Writer, results ...*study.Result) error {
	page := components.NewPage()
	page.PageTitle = "Random walk Metropolis scale sweeps"
	for _, r := range results {
		if err := checkSeries(r); err != nil {
			return err
		}
		name := fmt.Sprintf("%s / %s (dim %d)", r.TargetName, r.ProposalName, r.Dimension)
		page.AddCharts(
			sweepChart("ESJD: "+name, "ESJD", r.ScaleParams, r.ESJD),
			sweepChart("Acceptance rate: "+name, "acceptance rate", r.ScaleParams, r.AcceptanceRates),
		)
	}
	return page.Render(w)
}

// sweepChart builds one line chart of a sweep series against the
// scale grid.
func sweepChart(title, series string, xs, ys []float64) *charts.Line {
	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeChalk,
		}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: true,
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  true,
					Title: "Save",
				},
				DataZoom: &opts.ToolBoxFeatureDataZoom{
					Show: true,
				},
			},
		}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "scale", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: series}),
	)

	items := make([]opts.LineData, len(xs))
	for i := range xs {
		items[i] = opts.LineData{Value: [2]float64{xs[i], ys[i]}}
	}
	chart.AddSeries(series, items)
	return chart
}
