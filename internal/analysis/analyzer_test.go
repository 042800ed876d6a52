package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cbf_explorer_go/internal/dataset"
)

func TestSummarizeChannel(t *testing.T) {
	samples := []dataset.Sample{
		withValues(0, map[string]float64{"bp": 2}),
		withValues(1, map[string]float64{"bp": 4}),
		withValues(2, map[string]float64{"bp": math.NaN()}),
		withValues(3, map[string]float64{"bp": 4}),
		withValues(4, map[string]float64{"bp": 6}),
	}
	got := SummarizeChannel(samples, "bp")
	assert.Equal(t, "bp", got.Channel)
	assert.Equal(t, 4, got.Count)
	assert.InDelta(t, 4, got.Mean, 1e-12)
	assert.InDelta(t, 4, got.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(2), got.StdDev, 1e-12)
	assert.Equal(t, 2.0, got.Min)
	assert.Equal(t, 6.0, got.Max)
}

func TestSummarizeChannel_EdgeCounts(t *testing.T) {
	empty := SummarizeChannel(nil, "bp")
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.StdDev))

	one := SummarizeChannel([]dataset.Sample{withValues(0, map[string]float64{"bp": 7})}, "bp")
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 7.0, one.Median)
}

func TestSummarizePhase_KeepsChannelOrder(t *testing.T) {
	got := SummarizePhase(nil, []string{"b", "a"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Channel)
	assert.Equal(t, "a", got[1].Channel)
}

func TestCorrelation(t *testing.T) {
	perfect := []Pair{{1, 2}, {2, 4}, {3, 6}}
	assert.InDelta(t, 1.0, Correlation(perfect), 1e-12)

	inverse := []Pair{{1, 3}, {2, 2}, {3, 1}}
	assert.InDelta(t, -1.0, Correlation(inverse), 1e-12)

	assert.True(t, math.IsNaN(Correlation([]Pair{{1, 1}})))
	assert.True(t, math.IsNaN(Correlation([]Pair{{1, 1}, {1, 2}})), "no variance in x")
}

func TestCompareProfile(t *testing.T) {
	resting := []dataset.Sample{
		withValues(0, map[string]float64{"Blood_pressure": 80}),
		withValues(1, map[string]float64{"Blood_pressure": 100}),
	}
	pc := CompareProfile(resting, "Blood_pressure", 99)
	assert.True(t, pc.HasData())
	assert.InDelta(t, 90, pc.DatasetMean, 1e-12)
	assert.InDelta(t, 9, pc.Difference, 1e-12)
	assert.InDelta(t, 10, pc.PercentDifference, 1e-12)

	missing := CompareProfile(nil, "Blood_pressure", 120)
	assert.False(t, missing.HasData())
	assert.True(t, math.IsNaN(missing.Difference))
	assert.True(t, math.IsNaN(missing.PercentDifference))
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 25, PercentChange(80, 100), 1e-12)
	assert.InDelta(t, 50, PercentChange(-2, -1), 1e-12)
	assert.True(t, math.IsNaN(PercentChange(0, 5)))
	assert.True(t, math.IsNaN(PercentChange(math.NaN(), 5)))
	assert.True(t, math.IsNaN(PercentChange(5, math.NaN())))
}

func TestLinearFit(t *testing.T) {
	intercept, slope, ok := LinearFit([]Pair{{0, 1}, {1, 3}, {2, 5}})
	assert.True(t, ok)
	assert.InDelta(t, 1, intercept, 1e-12)
	assert.InDelta(t, 2, slope, 1e-12)

	_, _, ok = LinearFit([]Pair{{1, 1}})
	assert.False(t, ok)
	_, _, ok = LinearFit([]Pair{{1, 1}, {1, 2}})
	assert.False(t, ok)
}
