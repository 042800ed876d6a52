package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/user/cbf_explorer_go/internal/dataset"
)

// ErrEmptySeries is returned by point lookups against a series without samples.
var ErrEmptySeries = errors.New("empty series: no samples to query")

// NearestIndex bisects time-sorted samples for t and returns the index of the closer
// neighbour. Ties go to the lower index; t outside the domain clamps to an endpoint.
func NearestIndex(samples []dataset.Sample, t float64) (int, error) {
	n := len(samples)
	if n == 0 {
		return 0, ErrEmptySeries
	}
	i := sort.Search(n, func(i int) bool { return samples[i].Time >= t })
	if i == 0 {
		return 0, nil
	}
	if i == n {
		return n - 1, nil
	}
	if t-samples[i-1].Time <= samples[i].Time-t {
		return i - 1, nil
	}
	return i, nil
}

// NearestSample returns the sample closest in time to t. See NearestIndex.
func NearestSample(samples []dataset.Sample, t float64) (dataset.Sample, error) {
	i, err := NearestIndex(samples, t)
	if err != nil {
		return dataset.Sample{}, err
	}
	return samples[i], nil
}

// PairedProjection projects each sample onto (chX, chY), in input order.
// Samples missing either channel are skipped, so the result may be shorter than the input.
func PairedProjection(samples []dataset.Sample, chX, chY string) []Pair {
	out := make([]Pair, 0, len(samples))
	for _, s := range samples {
		x, okX := s.Value(chX)
		y, okY := s.Value(chY)
		if !okX || !okY {
			continue
		}
		out = append(out, Pair{X: x, Y: y})
	}
	return out
}

// MultiSeries builds a time-ordered series per requested channel that is flagged visible.
// Invisible channels are absent from the result; a visible channel with no values maps
// to an empty series. Missing values are left out of a series.
func MultiSeries(samples []dataset.Sample, channels []string, visible Visibility) map[string][]Point {
	out := make(map[string][]Point)
	for _, ch := range channels {
		if !visible[ch] {
			continue
		}
		if _, done := out[ch]; done {
			continue
		}
		out[ch] = ChannelSeries(samples, ch)
	}
	return out
}

// ChannelSeries returns the (time, value) points of one channel, skipping missing values.
func ChannelSeries(samples []dataset.Sample, channel string) []Point {
	pts := make([]Point, 0, len(samples))
	for _, s := range samples {
		if v, ok := s.Value(channel); ok {
			pts = append(pts, Point{Time: s.Time, Value: v})
		}
	}
	return pts
}

// MeansByChannel averages each channel's non-missing values.
// A channel without values maps to NaN, which callers must show as "no data".
func MeansByChannel(samples []dataset.Sample, channels []string) map[string]float64 {
	out := make(map[string]float64, len(channels))
	for _, ch := range channels {
		vals := channelValues(samples, ch)
		if len(vals) == 0 {
			out[ch] = math.NaN()
			continue
		}
		out[ch] = stat.Mean(vals, nil)
	}
	return out
}

// OxygenationTrace derives the oxygenation proxy as the mean of two infra-red channels.
// Samples missing either channel are skipped.
func OxygenationTrace(samples []dataset.Sample, chA, chB string) []Point {
	pts := make([]Point, 0, len(samples))
	for _, s := range samples {
		a, okA := s.Value(chA)
		b, okB := s.Value(chB)
		if !okA || !okB {
			continue
		}
		pts = append(pts, Point{Time: s.Time, Value: (a + b) / 2})
	}
	return pts
}

// Extent returns the min and max value of points; ok is false for an empty input.
func Extent(points []Point) (lo, hi float64, ok bool) {
	if len(points) == 0 {
		return math.NaN(), math.NaN(), false
	}
	lo, hi = points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi, true
}

// TimeDomain returns the first and last time of time-sorted samples.
func TimeDomain(samples []dataset.Sample) (lo, hi float64, ok bool) {
	if len(samples) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return samples[0].Time, samples[len(samples)-1].Time, true
}

// TimeTicks places ticks every interval seconds from the first multiple at or above lo,
// always ending with hi itself.
func TimeTicks(lo, hi, interval float64) []float64 {
	if hi < lo || math.IsNaN(lo) || math.IsNaN(hi) {
		return []float64{}
	}
	if interval <= 0 {
		return []float64{lo, hi}
	}
	ticks := make([]float64, 0)
	for v := math.Ceil(lo/interval) * interval; v < hi; v += interval {
		ticks = append(ticks, v)
	}
	return append(ticks, hi)
}

func channelValues(samples []dataset.Sample, channel string) []float64 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := s.Value(channel); ok {
			vals = append(vals, v)
		}
	}
	return vals
}
