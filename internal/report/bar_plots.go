package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/user/cbf_explorer_go/internal/analysis"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CreatePhaseMeansPlot draws one bar per phase for a channel's phase means.
// Phases whose mean is NaN are left out.
func CreatePhaseMeansPlot(channel string, phases []string, means []float64, size Size) ([]byte, error) {
	if len(phases) != len(means) {
		return nil, fmt.Errorf("phase means plot: %d phases but %d means", len(phases), len(means))
	}
	var names []string
	var values plotter.Values
	for i, m := range means {
		if math.IsNaN(m) {
			continue
		}
		names = append(names, phases[i])
		values = append(values, m)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no phase means for %s", channel)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by Phase", channel)
	p.Y.Label.Text = fmt.Sprintf("Mean %s", channel)
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %v", err)
	}
	bars.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	return renderPNG(p, size)
}

// CreateProfilePlot draws the user's values next to the dataset's resting means,
// one bar pair per channel. Channels without dataset values are left out.
func CreateProfilePlot(comparisons []analysis.ProfileComparison, size Size) ([]byte, error) {
	var names []string
	var datasetVals, userVals plotter.Values
	for _, pc := range comparisons {
		if !pc.HasData() || math.IsNaN(pc.UserValue) {
			continue
		}
		names = append(names, pc.Channel)
		datasetVals = append(datasetVals, pc.DatasetMean)
		userVals = append(userVals, pc.UserValue)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no profile comparisons to plot")
	}

	p := plot.New()
	p.Title.Text = "Your Profile vs Resting Mean"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	width := vg.Points(20)
	datasetBars, err := plotter.NewBarChart(datasetVals, width)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset bars: %v", err)
	}
	datasetBars.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	datasetBars.LineStyle.Width = vg.Length(0)
	datasetBars.Offset = -width / 2

	userBars, err := plotter.NewBarChart(userVals, width)
	if err != nil {
		return nil, fmt.Errorf("failed to create user bars: %v", err)
	}
	userBars.Color = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255}
	userBars.LineStyle.Width = vg.Length(0)
	userBars.Offset = width / 2

	p.Add(datasetBars, userBars)
	p.Legend.Add("Resting mean", datasetBars)
	p.Legend.Add("You", userBars)
	p.Legend.Top = true
	p.NominalX(names...)

	return renderPNG(p, size)
}
