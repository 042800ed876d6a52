package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cbf_explorer_go/internal/config"
)

const appCSV = `Subject,Time,Phase,Blood_pressure,right_MCA_BFV,left_MCA_BFV,resp_uncalibrated,i1_850,i1_805
S01,0,Resting,80,50,51,0.1,1.0,2.0
S01,300,Resting,84,52,,0.2,1.2,2.2
S01,600,Standing,70,45,46,0.3,1.4,2.4
S01,900,Sitting,76,48,49,0.2,1.6,2.6
`

func newLoadedApp(t *testing.T) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combined_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(appCSV), 0o644))
	a := NewApp(config.Default(), zap.NewNop())
	subjects, err := a.LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"S01"}, subjects)
	return a
}

func TestApp_NoDataset(t *testing.T) {
	a := NewApp(config.Default(), zap.NewNop())
	_, err := a.GetSubjects()
	assert.ErrorIs(t, err, errNoDataset)
	_, err = a.GetSeries("S01", "")
	assert.ErrorIs(t, err, errNoDataset)
	_, err = a.GetSampleAt("S01", 0)
	assert.ErrorIs(t, err, errNoDataset)
	_, err = a.HandleGenerateReport("S01", "out.pdf")
	assert.ErrorIs(t, err, errNoDataset)

	_, err = a.LoadDataset(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestApp_SeriesMapsMissingToNull(t *testing.T) {
	a := newLoadedApp(t)
	series, err := a.GetSeries("S01", "Resting")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Nil(t, series[1].Channels["left_MCA_BFV"])

	raw, err := json.Marshal(series[1])
	require.NoError(t, err)
	assert.True(t, bytes.Contains(raw, []byte(`"left_MCA_BFV":null`)))

	unknown, err := a.GetSeries("nobody", "")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestApp_Queries(t *testing.T) {
	a := newLoadedApp(t)

	phases, err := a.GetPhaseIntervals("S01")
	require.NoError(t, err)
	assert.Equal(t, "labels", phases.Policy)
	require.Len(t, phases.Intervals, 2)
	assert.Equal(t, []float64{600}, phases.Transitions)

	nearest, err := a.GetNearestSample("S01", 440)
	require.NoError(t, err)
	assert.Equal(t, 300.0, nearest.Time)
	_, err = a.GetNearestSample("nobody", 0)
	assert.Error(t, err)

	cursor, err := a.GetSampleAt("S01", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cursor.Index)
	assert.Equal(t, 300.0, cursor.Sample.Time)
	assert.Nil(t, cursor.Sample.Channels["left_MCA_BFV"])
	assert.Equal(t, "Resting", cursor.Phase)
	assert.InDelta(t, 0.5, cursor.Fraction, 1e-12)
	require.NotNil(t, cursor.Oxygenation)
	assert.InDelta(t, 1.7, *cursor.Oxygenation, 1e-12)

	cursor, err = a.GetSampleAt("S01", 50)
	require.NoError(t, err)
	assert.Equal(t, 3, cursor.Index, "index clamps to the last sample")
	assert.Equal(t, "Standing", cursor.Phase)
	assert.Equal(t, 1.0, cursor.Fraction)
	_, err = a.GetSampleAt("nobody", 0)
	assert.Error(t, err)

	corr, err := a.GetCorrelationPairs("S01", "Blood_pressure", "left_MCA_BFV")
	require.NoError(t, err)
	assert.Len(t, corr.Pairs, 3)
	assert.NotNil(t, corr.R)

	means, err := a.GetPhaseMeans("S01", "Resting", []string{"Blood_pressure", "i1_999"})
	require.NoError(t, err)
	require.NotNil(t, means["Blood_pressure"])
	assert.InDelta(t, 82, *means["Blood_pressure"], 1e-12)
	assert.Nil(t, means["i1_999"])

	lines, err := a.GetLineSeries("S01", nil, map[string]bool{"Blood_pressure": true})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Len(t, lines["Blood_pressure"], 4)

	oxy, err := a.GetOxygenation("S01")
	require.NoError(t, err)
	assert.Len(t, oxy, 4)

	profile, err := a.GetProfile("S01", map[string]float64{"Blood_pressure": 90})
	require.NoError(t, err)
	require.Len(t, profile, 1)
	require.NotNil(t, profile[0].Difference)
	assert.InDelta(t, 8, *profile[0].Difference, 1e-12)

	ticks, err := a.GetTimeTicks("S01")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 300, 600, 900}, ticks)
}

func TestApp_GenerateReport(t *testing.T) {
	a := newLoadedApp(t)
	out := filepath.Join(t.TempDir(), "S01.pdf")
	require.NoError(t, a.generateReport("S01", out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, a.generateReport("nobody", filepath.Join(t.TempDir(), "x.pdf")))
}
