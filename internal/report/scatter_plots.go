package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/user/cbf_explorer_go/internal/analysis"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// CreateCorrelationPlot draws a paired projection of two channels with its
// least-squares line. Pearson's r goes in the title when it is defined.
func CreateCorrelationPlot(chX, chY string, pairs []analysis.Pair, size Size) ([]byte, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no paired values for %s vs %s", chX, chY)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", chY, chX)
	if r := analysis.Correlation(pairs); !math.IsNaN(r) {
		p.Title.Text += fmt.Sprintf(" (r = %.2f)", r)
	}
	p.X.Label.Text = chX
	p.Y.Label.Text = chY
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(pairs))
	for i, pr := range pairs {
		xys[i].X, xys[i].Y = pr.X, pr.Y
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	scatter.GlyphStyle = draw.GlyphStyle{
		Color:  color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 160},
		Radius: vg.Points(2),
		Shape:  draw.CircleGlyph{},
	}
	p.Add(scatter)

	if intercept, slope, ok := analysis.LinearFit(pairs); ok {
		xmin, xmax, _, _ := plotter.XYRange(xys)
		fit, err := plotter.NewLine(plotter.XYs{
			{X: xmin, Y: intercept + slope*xmin},
			{X: xmax, Y: intercept + slope*xmax},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create fit line: %v", err)
		}
		fit.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255}
		fit.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(fit)
		p.Legend.Add("Least squares", fit)
	}

	return renderPNG(p, size)
}
