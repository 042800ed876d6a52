package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/dataset"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Size is a chart size in points.
type Size struct {
	Width  float64
	Height float64
}

// DefaultSize matches the dashboard's main chart.
var DefaultSize = Size{Width: 800, Height: 400}

// phaseColors shade the protocol phases behind series charts.
var phaseColors = map[string]color.Color{
	dataset.PhaseResting:   color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 40},
	dataset.PhasePreparing: color.NRGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 40},
	dataset.PhaseStanding:  color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 40},
	dataset.PhaseSitting:   color.NRGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 40},
}

var otherPhaseColor = color.NRGBA{R: 128, G: 128, B: 128, A: 30}

func phaseColor(label string) color.Color {
	if c, ok := phaseColors[label]; ok {
		return c
	}
	return otherPhaseColor
}

// CreateSeriesPlot draws channel series over time, in the given channel order,
// with phase bands shaded behind them and dashed lines at phase transitions.
func CreateSeriesPlot(title string, series map[string][]analysis.Point, order []string,
	intervals []analysis.Interval, ticks []float64, size Size) ([]byte, error) {

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ch := range order {
		if l, h, ok := analysis.Extent(series[ch]); ok {
			lo, hi = math.Min(lo, l), math.Max(hi, h)
		}
	}
	if math.IsInf(lo, 0) {
		return nil, fmt.Errorf("no series data to plot")
	}
	lo, hi = padRange(lo, hi)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	if err := addPhaseBands(p, intervals, lo, hi); err != nil {
		return nil, err
	}

	for i, ch := range order {
		pts := series[ch]
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(toXYs(pts))
		if err != nil {
			return nil, fmt.Errorf("failed to create line for %s: %v", ch, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(ch, line)
	}

	setTimeTicks(p, ticks)
	p.Y.Min, p.Y.Max = lo, hi
	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)

	return renderPNG(p, size)
}

// CreateOxygenationPlot draws the oxygenation proxy trace. A non-nil cursor is
// marked on the trace, the way the dashboard marks the hovered sample.
func CreateOxygenationPlot(title string, points []analysis.Point, intervals []analysis.Interval,
	cursor *analysis.Point, ticks []float64, size Size) ([]byte, error) {

	lo, hi, ok := analysis.Extent(points)
	if !ok {
		return nil, fmt.Errorf("no oxygenation data to plot")
	}
	lo, hi = padRange(lo, hi)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Oxygenation proxy"
	p.Add(plotter.NewGrid())

	if err := addPhaseBands(p, intervals, lo, hi); err != nil {
		return nil, err
	}

	line, err := plotter.NewLine(toXYs(points))
	if err != nil {
		return nil, fmt.Errorf("failed to create oxygenation line: %v", err)
	}
	line.Color = color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	if cursor != nil {
		mark, err := plotter.NewScatter(plotter.XYs{{X: cursor.Time, Y: cursor.Value}})
		if err != nil {
			return nil, fmt.Errorf("failed to create cursor: %v", err)
		}
		mark.GlyphStyle = draw.GlyphStyle{
			Color:  color.RGBA{R: 255, A: 255},
			Radius: vg.Points(4),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(mark)
		p.Legend.Add(fmt.Sprintf("t = %.0f s", cursor.Time), mark)
	}

	setTimeTicks(p, ticks)
	p.Y.Min, p.Y.Max = lo, hi
	return renderPNG(p, size)
}

// addPhaseBands shades each interval from lo to hi and draws the transitions.
func addPhaseBands(p *plot.Plot, intervals []analysis.Interval, lo, hi float64) error {
	seen := make(map[string]bool)
	for _, iv := range intervals {
		if iv.Width() <= 0 {
			continue
		}
		band, err := plotter.NewPolygon(plotter.XYs{
			{X: iv.Start, Y: lo}, {X: iv.End, Y: lo},
			{X: iv.End, Y: hi}, {X: iv.Start, Y: hi},
		})
		if err != nil {
			return fmt.Errorf("failed to shade phase %s: %v", iv.Label, err)
		}
		band.Color = phaseColor(iv.Label)
		band.LineStyle.Width = 0
		p.Add(band)
		if !seen[iv.Label] {
			seen[iv.Label] = true
			p.Legend.Add(iv.Label, band)
		}
	}

	for _, t := range analysis.Transitions(intervals) {
		mark, err := plotter.NewLine(plotter.XYs{{X: t, Y: lo}, {X: t, Y: hi}})
		if err != nil {
			return fmt.Errorf("failed to mark transition: %v", err)
		}
		mark.Color = color.Gray{Y: 90}
		mark.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(mark)
	}
	return nil
}

func setTimeTicks(p *plot.Plot, ticks []float64) {
	if len(ticks) == 0 {
		return
	}
	marks := make([]plot.Tick, len(ticks))
	for i, v := range ticks {
		marks[i] = plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(marks)
}

func toXYs(points []analysis.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X, xys[i].Y = pt.Time, pt.Value
	}
	return xys
}

// padRange widens [lo, hi] by 5% so lines do not touch the frame.
func padRange(lo, hi float64) (float64, float64) {
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func renderPNG(p *plot.Plot, size Size) ([]byte, error) {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	writer, err := p.WriterTo(vg.Points(size.Width), vg.Points(size.Height), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}
