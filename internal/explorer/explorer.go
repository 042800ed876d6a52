// Package explorer binds the segmentation and series queries to one loaded dataset.
// It is the query surface consumed by the desktop frontend and the report generator.
package explorer

import (
	"fmt"
	"math"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/dataset"
	"github.com/user/cbf_explorer_go/internal/parser"
)

// Options configures how an Explorer reads and segments data.
type Options struct {
	Columns          dataset.Columns
	Segmenter        *analysis.Segmenter
	OxygenChannels   [2]string
	RestingPhase     string // Phase used as the baseline for profile comparison
	DefaultChannels  []string
	TickIntervalSecs float64
}

// DefaultOptions returns the built-in dashboard settings.
func DefaultOptions() Options {
	return Options{
		Columns:          dataset.DefaultColumns(),
		Segmenter:        analysis.NewSegmenter(),
		OxygenChannels:   [2]string{dataset.ChannelIR850, dataset.ChannelIR805},
		RestingPhase:     dataset.PhaseResting,
		DefaultChannels:  dataset.DefaultChannels,
		TickIntervalSecs: 300,
	}
}

// Explorer answers per-subject queries over an immutable Dataset. Safe for concurrent use.
type Explorer struct {
	data *dataset.Dataset
	opts Options
}

// New wraps a loaded Dataset.
func New(data *dataset.Dataset, opts Options) (*Explorer, error) {
	if data == nil {
		return nil, fmt.Errorf("explorer needs a dataset")
	}
	if opts.Segmenter == nil {
		opts.Segmenter = analysis.NewSegmenter()
	}
	if err := opts.Segmenter.Validate(); err != nil {
		return nil, err
	}
	return &Explorer{data: data, opts: opts}, nil
}

// Open parses a CSV file and wraps the resulting Dataset.
func Open(csvPath string, opts Options) (*Explorer, error) {
	table, err := parser.ParseCSV(csvPath)
	if err != nil {
		return nil, err
	}
	data, err := dataset.LoadTable(table, opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", csvPath, err)
	}
	return New(data, opts)
}

// Dataset exposes the backing dataset.
func (e *Explorer) Dataset() *dataset.Dataset {
	return e.data
}

// Options returns the settings the Explorer was built with.
func (e *Explorer) Options() Options {
	return e.opts
}

// Subjects lists subject ids in first-occurrence order.
func (e *Explorer) Subjects() []string {
	return e.data.Subjects()
}

// Series returns a subject's time-ordered samples, optionally limited to one phase.
// An empty phase selects every sample.
func (e *Explorer) Series(subjectID, phase string) []dataset.Sample {
	if phase == "" {
		return e.data.SamplesFor(subjectID)
	}
	return e.data.SamplesForPhase(subjectID, phase)
}

// PhaseIntervals segments a subject's recording and reports which policy applied.
func (e *Explorer) PhaseIntervals(subjectID string) ([]analysis.Interval, analysis.Policy) {
	return e.opts.Segmenter.DeriveIntervals(e.data.SamplesFor(subjectID))
}

// NearestSample returns the subject's sample closest to t.
func (e *Explorer) NearestSample(subjectID string, t float64) (dataset.Sample, error) {
	s, err := analysis.NearestSample(e.data.SamplesFor(subjectID), t)
	if err != nil {
		return dataset.Sample{}, fmt.Errorf("subject %s: %w", subjectID, err)
	}
	return s, nil
}

// SampleAt returns the subject's index-th sample, clamped to the series; it backs
// cursor animation and index sliders.
func (e *Explorer) SampleAt(subjectID string, index int) (dataset.Sample, int, error) {
	samples := e.data.SamplesFor(subjectID)
	if len(samples) == 0 {
		return dataset.Sample{}, 0, fmt.Errorf("subject %s: %w", subjectID, analysis.ErrEmptySeries)
	}
	index = max(0, min(index, len(samples)-1))
	return samples[index], index, nil
}

// Cursor is a sample picked by index, with the phase it falls in.
type Cursor struct {
	Index       int
	Sample      dataset.Sample
	Phase       string  // Empty when no interval contains the sample
	Fraction    float64 // Position within Phase, 0..1
	Oxygenation float64 // NaN when an infra-red channel is missing
}

// CursorAt resolves the index-th sample of a subject, clamped, together with its
// phase interval and oxygenation proxy value.
func (e *Explorer) CursorAt(subjectID string, index int) (Cursor, error) {
	s, index, err := e.SampleAt(subjectID, index)
	if err != nil {
		return Cursor{}, err
	}
	c := Cursor{Index: index, Sample: s, Oxygenation: math.NaN()}
	intervals, _ := e.PhaseIntervals(subjectID)
	if iv, ok := analysis.IntervalAt(intervals, s.Time); ok {
		c.Phase = iv.Label
		c.Fraction = iv.Fraction(s.Time)
	}
	ch := e.opts.OxygenChannels
	if oxy := analysis.OxygenationTrace([]dataset.Sample{s}, ch[0], ch[1]); len(oxy) == 1 {
		c.Oxygenation = oxy[0].Value
	}
	return c, nil
}

// CursorNear is CursorAt for the sample closest to t.
func (e *Explorer) CursorNear(subjectID string, t float64) (Cursor, error) {
	i, err := analysis.NearestIndex(e.data.SamplesFor(subjectID), t)
	if err != nil {
		return Cursor{}, fmt.Errorf("subject %s: %w", subjectID, err)
	}
	return e.CursorAt(subjectID, i)
}

// CorrelationPairs projects a subject's samples onto two channels.
func (e *Explorer) CorrelationPairs(subjectID, chX, chY string) []analysis.Pair {
	return analysis.PairedProjection(e.data.SamplesFor(subjectID), chX, chY)
}

// Correlation is Pearson's r for a subject's channel pair.
func (e *Explorer) Correlation(subjectID, chX, chY string) float64 {
	return analysis.Correlation(e.CorrelationPairs(subjectID, chX, chY))
}

// PhaseMeans averages channels over a subject's samples in one phase.
func (e *Explorer) PhaseMeans(subjectID, phase string, channels []string) map[string]float64 {
	return analysis.MeansByChannel(e.Series(subjectID, phase), channels)
}

// PhaseSummary summarizes channels over a subject's samples in one phase.
func (e *Explorer) PhaseSummary(subjectID, phase string, channels []string) []analysis.ChannelSummary {
	return analysis.SummarizePhase(e.Series(subjectID, phase), channels)
}

// LineSeries returns the visible channels of a subject as time-ordered series.
func (e *Explorer) LineSeries(subjectID string, channels []string, visible analysis.Visibility) map[string][]analysis.Point {
	return analysis.MultiSeries(e.data.SamplesFor(subjectID), channels, visible)
}

// Oxygenation returns the subject's oxygenation proxy trace.
func (e *Explorer) Oxygenation(subjectID string) []analysis.Point {
	ch := e.opts.OxygenChannels
	return analysis.OxygenationTrace(e.data.SamplesFor(subjectID), ch[0], ch[1])
}

// Profile compares a user's own value with the subject's resting-phase mean.
func (e *Explorer) Profile(subjectID, channel string, userValue float64) analysis.ProfileComparison {
	return analysis.CompareProfile(e.data.SamplesForPhase(subjectID, e.opts.RestingPhase), channel, userValue)
}

// TimeTicks returns axis ticks for a subject's time domain.
func (e *Explorer) TimeTicks(subjectID string) []float64 {
	lo, hi, ok := analysis.TimeDomain(e.data.SamplesFor(subjectID))
	if !ok {
		return []float64{}
	}
	return analysis.TimeTicks(lo, hi, e.opts.TickIntervalSecs)
}
