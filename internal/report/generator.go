// Package report renders charts and per-subject PDF reports from explorer queries.
package report

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/dataset"
	"github.com/user/cbf_explorer_go/internal/explorer"
)

// Options selects what a subject report contains.
type Options struct {
	SourceFile       string
	Channels         []string           // Channels summarized and plotted
	Phases           []string           // Phases summarized, in display order
	CorrelationPairs [][2]string        // X, Y channel pairs
	UserProfile      map[string]float64 // Optional user values compared with resting means
	Size             Size
}

// DefaultOptions reports the dashboard's default channels over the protocol phases.
func DefaultOptions() Options {
	return Options{
		Channels: append([]string(nil), dataset.DefaultChannels...),
		Phases: []string{
			dataset.PhaseResting, dataset.PhasePreparing, dataset.PhaseStanding, dataset.PhaseSitting,
		},
		CorrelationPairs: [][2]string{
			{dataset.ChannelBloodPressure, dataset.ChannelRightMCABFV},
			{dataset.ChannelBloodPressure, dataset.ChannelLeftMCABFV},
		},
		Size: DefaultSize,
	}
}

// Generator builds subject reports from one Explorer.
type Generator struct {
	ex       *explorer.Explorer
	opts     Options
	logger   *zap.Logger
	OnStatus func(msg string) // Optional progress callback
}

// NewGenerator creates a Generator. A nil logger disables logging.
func NewGenerator(ex *explorer.Explorer, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		opts.Size = DefaultSize
	}
	return &Generator{ex: ex, opts: opts, logger: logger}
}

func (g *Generator) status(msg string, fields ...zap.Field) {
	g.logger.Info(msg, fields...)
	if g.OnStatus != nil {
		g.OnStatus(msg)
	}
}

// Collect gathers the tables of a subject's report. Unknown subjects are an error
// here since there is nothing to report.
func (g *Generator) Collect(subjectID string) (*SubjectReport, error) {
	samples := g.ex.Series(subjectID, "")
	if len(samples) == 0 {
		return nil, fmt.Errorf("subject %s: %w", subjectID, analysis.ErrEmptySeries)
	}

	intervals, policy := g.ex.PhaseIntervals(subjectID)
	r := &SubjectReport{
		SubjectID:   subjectID,
		SourceFile:  g.opts.SourceFile,
		GeneratedAt: time.Now(),
		SampleCount: len(samples),
		Policy:      policy,
		Intervals:   intervals,
		Channels:    g.presentChannels(),
		Warnings:    g.ex.Dataset().Warnings(),
	}

	for _, phase := range g.opts.Phases {
		if len(g.ex.Series(subjectID, phase)) == 0 {
			continue
		}
		r.Phases = append(r.Phases, PhaseSummary{
			Phase:    phase,
			Channels: g.ex.PhaseSummary(subjectID, phase, r.Channels),
		})
	}

	for _, pair := range g.opts.CorrelationPairs {
		if !g.ex.Dataset().HasChannel(pair[0]) || !g.ex.Dataset().HasChannel(pair[1]) {
			continue
		}
		pairs := g.ex.CorrelationPairs(subjectID, pair[0], pair[1])
		r.Correlations = append(r.Correlations, CorrelationResult{
			ChannelX: pair[0],
			ChannelY: pair[1],
			N:        len(pairs),
			R:        analysis.Correlation(pairs),
		})
	}

	for _, ch := range r.Channels {
		if v, ok := g.opts.UserProfile[ch]; ok {
			r.Profile = append(r.Profile, g.ex.Profile(subjectID, ch, v))
		}
	}
	r.Cursor = g.transitionCursor(subjectID, intervals)
	return r, nil
}

// transitionCursor picks the sample nearest the first phase transition for the
// oxygenation chart marker. Nil when there is no transition or no oxygenation value.
func (g *Generator) transitionCursor(subjectID string, intervals []analysis.Interval) *explorer.Cursor {
	ts := analysis.Transitions(intervals)
	if len(ts) == 0 {
		return nil
	}
	c, err := g.ex.CursorNear(subjectID, ts[0])
	if err != nil || math.IsNaN(c.Oxygenation) {
		return nil
	}
	return &c
}

func (g *Generator) presentChannels() []string {
	out := make([]string, 0, len(g.opts.Channels))
	for _, ch := range g.opts.Channels {
		if g.ex.Dataset().HasChannel(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// RenderPlots draws every chart of a report. Charts that cannot be drawn are
// logged and left out; the PDF shows a placeholder for them.
func (g *Generator) RenderPlots(r *SubjectReport) map[string][]byte {
	images := make(map[string][]byte)
	size := g.opts.Size
	subject := r.SubjectID
	ticks := g.ex.TimeTicks(subject)

	add := func(key string, img []byte, err error) {
		if err != nil {
			g.logger.Warn("plot skipped", zap.String("plot", key), zap.Error(err))
			return
		}
		images[key] = img
	}

	g.status("Plot: " + PlotSeries)
	series := g.ex.LineSeries(subject, r.Channels, analysis.AllVisible(r.Channels))
	img, err := CreateSeriesPlot(fmt.Sprintf("Subject %s", subject), series, r.Channels, r.Intervals, ticks, size)
	add(PlotSeries, img, err)

	g.status("Plot: " + PlotOxygenation)
	oxy := g.ex.Oxygenation(subject)
	var cursor *analysis.Point
	if r.Cursor != nil {
		cursor = &analysis.Point{Time: r.Cursor.Sample.Time, Value: r.Cursor.Oxygenation}
	}
	img, err = CreateOxygenationPlot(fmt.Sprintf("Oxygenation: Subject %s", subject), oxy, r.Intervals, cursor, ticks, size)
	add(PlotOxygenation, img, err)

	phaseNames := make([]string, len(r.Phases))
	for i, ps := range r.Phases {
		phaseNames[i] = ps.Phase
	}

	g.status("Plot: " + PlotPhaseChange)
	change := g.phaseChange(subject, r.Channels, phaseNames)
	img, err = CreatePhaseChangeHeatmap("Change from Resting Mean (%)", r.Channels, phaseNames, change, size)
	add(PlotPhaseChange, img, err)

	for _, ch := range r.Channels {
		means := make([]float64, len(r.Phases))
		for i, ps := range r.Phases {
			means[i] = g.ex.PhaseMeans(subject, ps.Phase, []string{ch})[ch]
		}
		g.status("Plot: " + MeansPlotKey(ch))
		img, err = CreatePhaseMeansPlot(ch, phaseNames, means, size)
		add(MeansPlotKey(ch), img, err)
	}

	for _, c := range r.Correlations {
		key := CorrelationPlotKey(c.ChannelX, c.ChannelY)
		g.status("Plot: " + key)
		img, err = CreateCorrelationPlot(c.ChannelX, c.ChannelY, g.ex.CorrelationPairs(subject, c.ChannelX, c.ChannelY), size)
		add(key, img, err)
	}

	if len(r.Profile) > 0 {
		g.status("Plot: " + PlotProfile)
		img, err = CreateProfilePlot(r.Profile, size)
		add(PlotProfile, img, err)
	}
	return images
}

// phaseChange is the percent change of each channel's phase mean from its resting mean.
func (g *Generator) phaseChange(subjectID string, channels, phases []string) [][]float64 {
	resting := g.ex.PhaseMeans(subjectID, g.ex.Options().RestingPhase, channels)
	out := make([][]float64, len(channels))
	for i, ch := range channels {
		out[i] = make([]float64, len(phases))
		for j, phase := range phases {
			m := g.ex.PhaseMeans(subjectID, phase, []string{ch})[ch]
			out[i][j] = analysis.PercentChange(resting[ch], m)
		}
	}
	return out
}

// Generate collects, renders and writes the PDF report of one subject.
func (g *Generator) Generate(subjectID, pdfPath string) error {
	g.status("Collecting report data", zap.String("subject", subjectID))
	r, err := g.Collect(subjectID)
	if err != nil {
		return err
	}

	g.status("Generating plots...")
	images := g.RenderPlots(r)
	g.status(fmt.Sprintf("Rendered %d plots.", len(images)))

	g.status("Generating PDF", zap.String("path", pdfPath))
	if err := BuildSubjectReport(pdfPath, r, images); err != nil {
		return fmt.Errorf("error generating PDF report: %w", err)
	}
	return nil
}
