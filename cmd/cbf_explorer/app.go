package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/config"
	"github.com/user/cbf_explorer_go/internal/dataset"
	"github.com/user/cbf_explorer_go/internal/explorer"
	"github.com/user/cbf_explorer_go/internal/report"
)

var errNoDataset = errors.New("no dataset loaded")

// SampleDTO is a Sample as sent to the frontend; missing channel values are null.
type SampleDTO struct {
	Subject  string              `json:"subject"`
	Time     float64             `json:"time"`
	Phase    string              `json:"phase"`
	Channels map[string]*float64 `json:"channels"`
}

// IntervalDTO is one phase band.
type IntervalDTO struct {
	Label string  `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// PhaseIntervalsDTO is a subject's phase bands with the policy that derived them.
type PhaseIntervalsDTO struct {
	Policy      string        `json:"policy"`
	Intervals   []IntervalDTO `json:"intervals"`
	Transitions []float64     `json:"transitions"`
}

// PointDTO is one (time, value) point of a chart series.
type PointDTO struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// CorrelationDTO is a scatter projection; R is null when undefined.
type CorrelationDTO struct {
	Pairs [][2]float64 `json:"pairs"`
	R     *float64     `json:"r"`
}

// ProfileDTO compares one user value with a resting mean.
type ProfileDTO struct {
	Channel           string   `json:"channel"`
	DatasetMean       *float64 `json:"datasetMean"`
	UserValue         float64  `json:"userValue"`
	Difference        *float64 `json:"difference"`
	PercentDifference *float64 `json:"percentDifference"`
}

// CursorDTO is the slider-selected sample with the phase it falls in.
type CursorDTO struct {
	Index       int       `json:"index"`
	Sample      SampleDTO `json:"sample"`
	Phase       string    `json:"phase"`
	Fraction    float64   `json:"fraction"`
	Oxygenation *float64  `json:"oxygenation"`
}

// App struct
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.RWMutex
	ex      *explorer.Explorer
	csvPath string
}

// NewApp creates a new App application struct
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowSetTitle(a.ctx, "CBF Explorer")
	if a.cfg.CSVPath != "" {
		if _, err := a.LoadDataset(a.cfg.CSVPath); err != nil {
			a.logger.Warn("initial dataset not loaded", zap.String("path", a.cfg.CSVPath), zap.Error(err))
		}
	}
}

func (a *App) emit(event string, data ...interface{}) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, event, data...)
	}
}

func (a *App) sendStatus(message string) {
	a.emit("statusUpdate", message)
	a.logger.Info(message)
}

func (a *App) explorer() (*explorer.Explorer, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ex == nil {
		return nil, errNoDataset
	}
	return a.ex, nil
}

// LoadDataset parses a CSV export and makes it the active dataset.
// It returns the subject ids found.
func (a *App) LoadDataset(csvPath string) ([]string, error) {
	ex, err := explorer.Open(csvPath, a.cfg.ExplorerOptions())
	if err != nil {
		a.logger.Error("failed to load dataset", zap.String("path", csvPath), zap.Error(err))
		return nil, err
	}
	for _, w := range ex.Dataset().Warnings() {
		a.logger.Warn("dataset warning", zap.String("detail", w))
	}

	a.mu.Lock()
	a.ex, a.csvPath = ex, csvPath
	a.mu.Unlock()

	a.logger.Info("dataset loaded",
		zap.String("path", csvPath),
		zap.Int("samples", ex.Dataset().Len()),
		zap.Int("subjects", len(ex.Subjects())))
	a.emit("datasetLoaded", ex.Subjects())
	return ex.Subjects(), nil
}

// GetSubjects lists subject ids in file order.
func (a *App) GetSubjects() ([]string, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	return ex.Subjects(), nil
}

// GetChannels lists the numeric channels of the active dataset.
func (a *App) GetChannels() ([]string, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	return ex.Dataset().Channels(), nil
}

// GetSeries returns a subject's samples, optionally limited to one phase.
func (a *App) GetSeries(subjectID, phase string) ([]SampleDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	samples := ex.Series(subjectID, phase)
	out := make([]SampleDTO, len(samples))
	for i, s := range samples {
		out[i] = toSampleDTO(s)
	}
	return out, nil
}

// GetLineSeries returns the visible channels of a subject as time series.
func (a *App) GetLineSeries(subjectID string, channels []string, visible map[string]bool) (map[string][]PointDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = ex.Options().DefaultChannels
	}
	series := ex.LineSeries(subjectID, channels, analysis.Visibility(visible))
	out := make(map[string][]PointDTO, len(series))
	for ch, pts := range series {
		out[ch] = toPointDTOs(pts)
	}
	return out, nil
}

// GetPhaseIntervals returns a subject's phase bands and how they were derived.
func (a *App) GetPhaseIntervals(subjectID string) (PhaseIntervalsDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return PhaseIntervalsDTO{}, err
	}
	intervals, policy := ex.PhaseIntervals(subjectID)
	dto := PhaseIntervalsDTO{
		Policy:      policy.String(),
		Intervals:   make([]IntervalDTO, len(intervals)),
		Transitions: analysis.Transitions(intervals),
	}
	for i, iv := range intervals {
		dto.Intervals[i] = IntervalDTO{Label: iv.Label, Start: iv.Start, End: iv.End}
	}
	return dto, nil
}

// GetNearestSample returns the subject's sample closest to t, for hover tooltips.
func (a *App) GetNearestSample(subjectID string, t float64) (SampleDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return SampleDTO{}, err
	}
	s, err := ex.NearestSample(subjectID, t)
	if err != nil {
		return SampleDTO{}, err
	}
	return toSampleDTO(s), nil
}

// GetSampleAt returns the subject's index-th sample for the oxygenation slider.
// Out-of-range indices clamp to the first or last sample.
func (a *App) GetSampleAt(subjectID string, index int) (CursorDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return CursorDTO{}, err
	}
	c, err := ex.CursorAt(subjectID, index)
	if err != nil {
		return CursorDTO{}, err
	}
	return CursorDTO{
		Index:       c.Index,
		Sample:      toSampleDTO(c.Sample),
		Phase:       c.Phase,
		Fraction:    c.Fraction,
		Oxygenation: nullable(c.Oxygenation),
	}, nil
}

// GetCorrelationPairs returns the (x, y) projection of two channels with Pearson's r.
func (a *App) GetCorrelationPairs(subjectID, chX, chY string) (CorrelationDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return CorrelationDTO{}, err
	}
	pairs := ex.CorrelationPairs(subjectID, chX, chY)
	dto := CorrelationDTO{Pairs: make([][2]float64, len(pairs)), R: nullable(analysis.Correlation(pairs))}
	for i, p := range pairs {
		dto.Pairs[i] = [2]float64{p.X, p.Y}
	}
	return dto, nil
}

// GetPhaseMeans averages channels over a subject's samples in one phase.
func (a *App) GetPhaseMeans(subjectID, phase string, channels []string) (map[string]*float64, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = ex.Options().DefaultChannels
	}
	means := ex.PhaseMeans(subjectID, phase, channels)
	out := make(map[string]*float64, len(means))
	for ch, m := range means {
		out[ch] = nullable(m)
	}
	return out, nil
}

// GetOxygenation returns the subject's oxygenation proxy trace.
func (a *App) GetOxygenation(subjectID string) ([]PointDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	return toPointDTOs(ex.Oxygenation(subjectID)), nil
}

// GetProfile compares the user's own values with the subject's resting means.
func (a *App) GetProfile(subjectID string, values map[string]float64) ([]ProfileDTO, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	out := make([]ProfileDTO, 0, len(values))
	for _, ch := range ex.Dataset().Channels() {
		v, ok := values[ch]
		if !ok {
			continue
		}
		pc := ex.Profile(subjectID, ch, v)
		out = append(out, ProfileDTO{
			Channel:           pc.Channel,
			DatasetMean:       nullable(pc.DatasetMean),
			UserValue:         pc.UserValue,
			Difference:        nullable(pc.Difference),
			PercentDifference: nullable(pc.PercentDifference),
		})
	}
	return out, nil
}

// GetTimeTicks returns the time-axis ticks of a subject's chart.
func (a *App) GetTimeTicks(subjectID string) ([]float64, error) {
	ex, err := a.explorer()
	if err != nil {
		return nil, err
	}
	return ex.TimeTicks(subjectID), nil
}

// HandleGenerateReport is called from the frontend to start report generation.
// Progress and completion are reported through events.
func (a *App) HandleGenerateReport(subjectID, pdfFilePath string) (string, error) {
	if _, err := a.explorer(); err != nil {
		return "", err
	}
	a.emit("clearLog")
	a.sendStatus(fmt.Sprintf("Request: subject=[%s], PDF=[%s]", subjectID, pdfFilePath))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errMsg := fmt.Sprintf("PANIC recovered: %v", r)
				a.sendStatus(errMsg)
				a.emit("generationComplete", false, errMsg)
			}
		}()

		a.emit("generationStart")
		if err := a.generateReport(subjectID, pdfFilePath); err != nil {
			errMsg := fmt.Sprintf("Error generating report: %v", err)
			a.sendStatus(errMsg)
			a.emit("generationComplete", false, errMsg)
			return
		}
		successMsg := fmt.Sprintf("PDF report successfully generated: %s", pdfFilePath)
		a.sendStatus(successMsg)
		a.emit("generationComplete", true, successMsg)
	}()

	return "Report generation started in background.", nil
}

func (a *App) generateReport(subjectID, pdfFilePath string) error {
	ex, err := a.explorer()
	if err != nil {
		return err
	}
	a.mu.RLock()
	source := a.csvPath
	a.mu.RUnlock()

	opts := report.DefaultOptions()
	opts.SourceFile = filepath.Base(source)
	opts.Channels = ex.Options().DefaultChannels
	opts.Size = report.Size{Width: a.cfg.Charts.Width, Height: a.cfg.Charts.Height}

	gen := report.NewGenerator(ex, opts, a.logger)
	gen.OnStatus = func(msg string) { a.emit("statusUpdate", msg) }
	return gen.Generate(subjectID, pdfFilePath)
}

func toSampleDTO(s dataset.Sample) SampleDTO {
	channels := make(map[string]*float64, len(s.Channels))
	for ch, v := range s.Channels {
		channels[ch] = nullable(v)
	}
	return SampleDTO{Subject: s.SubjectID, Time: s.Time, Phase: s.Phase, Channels: channels}
}

func toPointDTOs(points []analysis.Point) []PointDTO {
	out := make([]PointDTO, len(points))
	for i, p := range points {
		out[i] = PointDTO{Time: p.Time, Value: p.Value}
	}
	return out
}

// nullable maps NaN to nil since JSON has no NaN.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
