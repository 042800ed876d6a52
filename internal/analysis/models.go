package analysis

import "math"

// Policy names how a set of phase intervals was derived.
type Policy int

const (
	// PolicyLabels groups contiguous runs of per-sample phase labels.
	PolicyLabels Policy = iota
	// PolicyFractions splits the time domain at fixed fractions because no labels exist.
	PolicyFractions
)

func (p Policy) String() string {
	switch p {
	case PolicyLabels:
		return "labels"
	case PolicyFractions:
		return "fractions"
	}
	return "unknown"
}

// Interval is one labeled span of a subject's recording, in seconds.
type Interval struct {
	Label string
	Start float64
	End   float64
}

// Width is End - Start; zero for a single-instant domain.
func (iv Interval) Width() float64 {
	return iv.End - iv.Start
}

// Contains reports whether t lies in [Start, End].
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t <= iv.End
}

// Fraction maps t to its relative position in the interval, clamped to [0,1].
// A zero-width interval reports 0.
func (iv Interval) Fraction(t float64) float64 {
	w := iv.Width()
	if w <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, (t-iv.Start)/w))
}

// Point is one (time, value) sample of a channel series.
type Point struct {
	Time  float64
	Value float64
}

// Pair is one (x, y) projection of two channels of the same sample.
type Pair struct {
	X float64
	Y float64
}

// Visibility flags which requested channels a series query should produce.
type Visibility map[string]bool

// AllVisible marks every given channel visible.
func AllVisible(channels []string) Visibility {
	v := make(Visibility, len(channels))
	for _, ch := range channels {
		v[ch] = true
	}
	return v
}

// ChannelSummary holds descriptive statistics of a channel over a set of samples.
// All statistics are NaN when Count is zero.
type ChannelSummary struct {
	Channel string
	Count   int
	Mean    float64
	Median  float64
	StdDev  float64 // Population standard deviation
	Min     float64
	Max     float64
}

// ProfileComparison contrasts a user's own measurement with the dataset's mean for a channel.
type ProfileComparison struct {
	Channel           string
	DatasetMean       float64 // NaN when the dataset has no values
	UserValue         float64
	Difference        float64 // UserValue - DatasetMean
	PercentDifference float64 // Relative to DatasetMean; NaN when the mean is zero or missing
}

// HasData reports whether the dataset side of the comparison could be computed.
func (p ProfileComparison) HasData() bool {
	return !math.IsNaN(p.DatasetMean)
}
