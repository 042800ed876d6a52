package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

// changeGrid lays out percent changes with phases along X and channels along Y.
type changeGrid struct {
	values [][]float64 // [channel][phase]
}

func (g changeGrid) Dims() (c, r int)   { return len(g.values[0]), len(g.values) }
func (g changeGrid) Z(c, r int) float64 { return g.values[r][c] }
func (g changeGrid) X(c int) float64    { return float64(c) }
func (g changeGrid) Y(r int) float64    { return float64(r) }

// CreatePhaseChangeHeatmap draws percent change from baseline for each channel (rows)
// and phase (columns). NaN cells are drawn grey. The colour scale is symmetric
// around zero so rises and falls read the same.
func CreatePhaseChangeHeatmap(title string, channels, phases []string, change [][]float64, size Size) ([]byte, error) {
	if len(channels) == 0 || len(phases) == 0 {
		return nil, fmt.Errorf("no channels or phases for heatmap")
	}
	if len(change) != len(channels) {
		return nil, fmt.Errorf("heatmap: %d rows for %d channels", len(change), len(channels))
	}
	limit := 0.0
	for i, row := range change {
		if len(row) != len(phases) {
			return nil, fmt.Errorf("heatmap: row %s has %d cells for %d phases", channels[i], len(row), len(phases))
		}
		for _, v := range row {
			if !math.IsNaN(v) {
				limit = math.Max(limit, math.Abs(v))
			}
		}
	}
	if limit == 0 {
		limit = 1
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-limit)
	cmap.SetMax(limit)

	hm := plotter.NewHeatMap(changeGrid{values: change}, cmap.Palette(255))
	hm.Min = -limit
	hm.Max = limit
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Phase"
	p.Y.Label.Text = "Channel"
	p.Add(hm)

	xTicks := make([]plot.Tick, len(phases))
	for i, name := range phases {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	yTicks := make([]plot.Tick, len(channels))
	for i, name := range channels {
		yTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	return renderPNG(p, size)
}
