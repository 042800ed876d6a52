package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/user/cbf_explorer_go/internal/dataset"
)

// SummarizeChannel computes descriptive statistics of a channel's non-missing values.
func SummarizeChannel(samples []dataset.Sample, channel string) ChannelSummary {
	sum := ChannelSummary{
		Channel: channel,
		Mean:    math.NaN(),
		Median:  math.NaN(),
		StdDev:  math.NaN(),
		Min:     math.NaN(),
		Max:     math.NaN(),
	}
	data := stats.Float64Data(channelValues(samples, channel))
	sum.Count = data.Len()
	if sum.Count == 0 {
		return sum
	}

	// Errors from the stats package only signal empty input, ruled out above.
	sum.Mean, _ = data.Mean()
	sum.Median, _ = data.Median()
	sum.Min, _ = data.Min()
	sum.Max, _ = data.Max()
	if sum.Count == 1 {
		sum.StdDev = 0.0
	} else {
		sum.StdDev, _ = data.StandardDeviationPopulation()
	}
	return sum
}

// SummarizePhase summarizes each channel over the given samples, in channel order.
func SummarizePhase(samples []dataset.Sample, channels []string) []ChannelSummary {
	out := make([]ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		out = append(out, SummarizeChannel(samples, ch))
	}
	return out
}

// Correlation is Pearson's r over pairs. It is NaN for fewer than two pairs
// or when either side has no variance.
func Correlation(pairs []Pair) float64 {
	if len(pairs) < 2 {
		return math.NaN()
	}
	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p.X, p.Y
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// CompareProfile contrasts userValue with the mean of channel over samples
// (typically a subject's resting phase).
func CompareProfile(samples []dataset.Sample, channel string, userValue float64) ProfileComparison {
	mean := MeansByChannel(samples, []string{channel})[channel]
	pc := ProfileComparison{
		Channel:           channel,
		DatasetMean:       mean,
		UserValue:         userValue,
		Difference:        userValue - mean,
		PercentDifference: PercentChange(mean, userValue),
	}
	return pc
}

// PercentChange is the change from baseline to value relative to |baseline|.
// It is NaN when either side is missing or the baseline is zero.
func PercentChange(baseline, value float64) float64 {
	if math.IsNaN(baseline) || math.IsNaN(value) || baseline == 0 {
		return math.NaN()
	}
	return (value - baseline) / math.Abs(baseline) * 100
}

// LinearFit is the least-squares line y = intercept + slope*x through pairs.
// ok is false for fewer than two pairs or when x has no variance.
func LinearFit(pairs []Pair) (intercept, slope float64, ok bool) {
	if len(pairs) < 2 {
		return math.NaN(), math.NaN(), false
	}
	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p.X, p.Y
	}
	if stat.Variance(xs, nil) == 0 {
		return math.NaN(), math.NaN(), false
	}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	return intercept, slope, true
}
