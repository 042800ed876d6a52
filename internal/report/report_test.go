package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/dataset"
	"github.com/user/cbf_explorer_go/internal/explorer"
)

const studyCSV = `Unnamed: 0,Subject,Time,Phase,Blood_pressure,right_MCA_BFV,left_MCA_BFV,resp_uncalibrated,i1_850,i1_805
0,S01,0,Resting,80,50,51,0.1,1.0,2.0
1,S01,100,Resting,82,51,52,0.2,1.1,2.1
2,S01,200,Preparing,81,50,50,0.2,1.2,2.2
3,S01,300,Standing,70,44,45,0.3,1.3,2.3
4,S01,400,Standing,72,45,46,0.3,1.4,2.4
5,S01,500,Sitting,78,48,49,0.2,1.5,2.5
6,S01,600,Sitting,79,49,50,0.2,1.6,2.6
7,S02,0,,90,60,61,0.1,1.0,1.0
8,S02,1000,,92,61,62,0.1,1.1,1.0
`

var pngMagic = []byte("\x89PNG")

func openExplorer(t *testing.T) *explorer.Explorer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combined_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(studyCSV), 0o644))
	ex, err := explorer.Open(path, explorer.DefaultOptions())
	require.NoError(t, err)
	return ex
}

func TestCreateSeriesPlot(t *testing.T) {
	ex := openExplorer(t)
	channels := []string{dataset.ChannelBloodPressure, dataset.ChannelRightMCABFV}
	series := ex.LineSeries("S01", channels, analysis.AllVisible(channels))
	intervals, _ := ex.PhaseIntervals("S01")

	img, err := CreateSeriesPlot("S01", series, channels, intervals, ex.TimeTicks("S01"), Size{Width: 400, Height: 200})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreateSeriesPlot("empty", map[string][]analysis.Point{}, channels, nil, nil, DefaultSize)
	assert.Error(t, err)
}

func TestCreateOxygenationPlot(t *testing.T) {
	ex := openExplorer(t)
	oxy := ex.Oxygenation("S01")
	require.NotEmpty(t, oxy)
	intervals, _ := ex.PhaseIntervals("S01")

	img, err := CreateOxygenationPlot("oxy", oxy, intervals, &oxy[2], nil, DefaultSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	flat := []analysis.Point{{Time: 0, Value: 1}, {Time: 10, Value: 1}}
	img, err = CreateOxygenationPlot("flat", flat, nil, nil, nil, DefaultSize)
	require.NoError(t, err, "a constant trace still gets a usable y range")
	assert.NotEmpty(t, img)

	_, err = CreateOxygenationPlot("none", nil, nil, nil, nil, DefaultSize)
	assert.Error(t, err)
}

func TestCreatePhaseMeansPlot(t *testing.T) {
	img, err := CreatePhaseMeansPlot("Blood_pressure", []string{"Resting", "Standing", "Sitting"},
		[]float64{81, math.NaN(), 78.5}, DefaultSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreatePhaseMeansPlot("Blood_pressure", []string{"Resting"}, []float64{math.NaN()}, DefaultSize)
	assert.Error(t, err)
	_, err = CreatePhaseMeansPlot("Blood_pressure", []string{"Resting"}, nil, DefaultSize)
	assert.Error(t, err)
}

func TestCreateProfilePlot(t *testing.T) {
	comparisons := []analysis.ProfileComparison{
		analysis.CompareProfile(nil, "left_MCA_BFV", 50),
		{Channel: "Blood_pressure", DatasetMean: 81, UserValue: 90, Difference: 9},
	}
	img, err := CreateProfilePlot(comparisons, DefaultSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreateProfilePlot(comparisons[:1], DefaultSize)
	assert.Error(t, err)
}

func TestCreateCorrelationPlot(t *testing.T) {
	img, err := CreateCorrelationPlot("x", "y", []analysis.Pair{{X: 1, Y: 2}, {X: 2, Y: 4.5}, {X: 3, Y: 5.5}}, DefaultSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	img, err = CreateCorrelationPlot("x", "y", []analysis.Pair{{X: 1, Y: 2}}, DefaultSize)
	require.NoError(t, err, "a single pair plots without a fit line")
	assert.NotEmpty(t, img)

	_, err = CreateCorrelationPlot("x", "y", nil, DefaultSize)
	assert.Error(t, err)
}

func TestCreatePhaseChangeHeatmap(t *testing.T) {
	change := [][]float64{
		{0, -12.5, -3},
		{0, math.NaN(), 4},
	}
	img, err := CreatePhaseChangeHeatmap("change", []string{"a", "b"}, []string{"Resting", "Standing", "Sitting"}, change, DefaultSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreatePhaseChangeHeatmap("bad", []string{"a"}, []string{"Resting", "Standing"}, [][]float64{{1}}, DefaultSize)
	assert.Error(t, err)
	_, err = CreatePhaseChangeHeatmap("bad", nil, nil, nil, DefaultSize)
	assert.Error(t, err)
}

func TestGenerator_Collect(t *testing.T) {
	ex := openExplorer(t)
	opts := DefaultOptions()
	opts.UserProfile = map[string]float64{dataset.ChannelBloodPressure: 90}
	g := NewGenerator(ex, opts, nil)

	r, err := g.Collect("S01")
	require.NoError(t, err)
	assert.Equal(t, 7, r.SampleCount)
	assert.Equal(t, analysis.PolicyLabels, r.Policy)
	require.Len(t, r.Phases, 4)
	assert.Equal(t, dataset.PhaseResting, r.Phases[0].Phase)
	require.Len(t, r.Correlations, 2)
	assert.Equal(t, 7, r.Correlations[0].N)
	require.Len(t, r.Profile, 1)
	assert.InDelta(t, 81, r.Profile[0].DatasetMean, 1e-12)

	// The oxygenation marker sits on the first transition, Resting -> Preparing at 200 s.
	require.NotNil(t, r.Cursor)
	assert.Equal(t, 2, r.Cursor.Index)
	assert.Equal(t, 200.0, r.Cursor.Sample.Time)
	assert.Equal(t, dataset.PhasePreparing, r.Cursor.Phase)
	assert.Equal(t, 0.0, r.Cursor.Fraction)
	assert.InDelta(t, 1.7, r.Cursor.Oxygenation, 1e-12)

	fallback, err := g.Collect("S02")
	require.NoError(t, err)
	assert.Equal(t, analysis.PolicyFractions, fallback.Policy)
	assert.Empty(t, fallback.Phases, "unlabeled samples match no phase")
	require.NotNil(t, fallback.Cursor)
	assert.Equal(t, 0.0, fallback.Cursor.Sample.Time, "400 s is closer to 0 than to 1000")
	assert.Equal(t, dataset.PhaseResting, fallback.Cursor.Phase)

	assert.Nil(t, g.transitionCursor("S01", nil))

	_, err = g.Collect("nobody")
	assert.ErrorIs(t, err, analysis.ErrEmptySeries)
}

func TestGenerator_Generate(t *testing.T) {
	ex := openExplorer(t)
	opts := DefaultOptions()
	opts.SourceFile = "combined_data.csv"
	opts.UserProfile = map[string]float64{dataset.ChannelBloodPressure: 90}
	opts.Size = Size{Width: 400, Height: 200}

	var messages []string
	g := NewGenerator(ex, opts, nil)
	g.OnStatus = func(msg string) { messages = append(messages, msg) }

	r, err := g.Collect("S01")
	require.NoError(t, err)
	images := g.RenderPlots(r)
	assert.Contains(t, images, PlotSeries)
	assert.Contains(t, images, PlotOxygenation)
	assert.Contains(t, images, PlotPhaseChange)
	assert.Contains(t, images, MeansPlotKey(dataset.ChannelBloodPressure))
	assert.Contains(t, images, CorrelationPlotKey(dataset.ChannelBloodPressure, dataset.ChannelRightMCABFV))
	assert.Contains(t, images, PlotProfile)

	out := filepath.Join(t.TempDir(), "S01.pdf")
	require.NoError(t, g.Generate("S01", out))
	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.NotEmpty(t, messages)

	// Unlabeled subjects still get a report with fraction-derived bands.
	require.NoError(t, g.Generate("S02", filepath.Join(t.TempDir(), "S02.pdf")))

	assert.Error(t, g.Generate("nobody", filepath.Join(t.TempDir(), "nobody.pdf")))
}

func TestBuildSubjectReport_Minimal(t *testing.T) {
	out := filepath.Join(t.TempDir(), "min.pdf")
	require.NoError(t, BuildSubjectReport(out, &SubjectReport{SubjectID: "S09"}, nil))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, BuildSubjectReport(out, nil, nil))
}
