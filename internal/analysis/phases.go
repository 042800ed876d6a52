package analysis

import (
	"fmt"
	"slices"
	"sort"

	"github.com/user/cbf_explorer_go/internal/dataset"
)

// Default fallback split of an unlabeled recording. These are the dashboard's
// historical heuristics, kept as-is.
const (
	DefaultStandFraction = 0.4
	DefaultSitFraction   = 0.7
)

// DefaultFallbackLabels name the three fallback intervals.
var DefaultFallbackLabels = [3]string{dataset.PhaseResting, dataset.PhaseStanding, dataset.PhaseSitting}

// Segmenter derives ordered phase intervals from a subject's samples.
type Segmenter struct {
	// Fractions are the relative split points used when no sample has a phase label.
	Fractions [2]float64
	// FallbackLabels name the intervals produced by the fraction split.
	FallbackLabels [3]string
}

// NewSegmenter returns a Segmenter with the default 0.4/0.7 fallback.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		Fractions:      [2]float64{DefaultStandFraction, DefaultSitFraction},
		FallbackLabels: DefaultFallbackLabels,
	}
}

// Validate checks that fallback fractions are ordered within (0,1).
func (sg *Segmenter) Validate() error {
	a, b := sg.Fractions[0], sg.Fractions[1]
	if !(a > 0 && a < b && b < 1) {
		return fmt.Errorf("phase fractions must satisfy 0 < %.3f < %.3f < 1", a, b)
	}
	return nil
}

// DeriveIntervals segments samples into contiguous intervals covering [min(time), max(time)].
// Labeled samples are grouped into runs of identical label; without any label the domain
// is split at the fallback fractions. The returned Policy tells which rule applied.
// An empty input yields no intervals.
func (sg *Segmenter) DeriveIntervals(samples []dataset.Sample) ([]Interval, Policy) {
	labeled := slices.ContainsFunc(samples, func(s dataset.Sample) bool { return s.Phase != "" })
	policy := PolicyFractions
	if labeled {
		policy = PolicyLabels
	}
	if len(samples) == 0 {
		return nil, policy
	}

	sorted := slices.Clone(samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	lo, hi := sorted[0].Time, sorted[len(sorted)-1].Time

	if !labeled {
		return sg.fractionIntervals(lo, hi), policy
	}
	return labelIntervals(sorted, lo, hi), policy
}

func (sg *Segmenter) fractionIntervals(lo, hi float64) []Interval {
	span := hi - lo
	if span <= 0 {
		return []Interval{{Label: sg.FallbackLabels[0], Start: lo, End: hi}}
	}
	b1 := lo + sg.Fractions[0]*span
	b2 := lo + sg.Fractions[1]*span
	return []Interval{
		{Label: sg.FallbackLabels[0], Start: lo, End: b1},
		{Label: sg.FallbackLabels[1], Start: b1, End: b2},
		{Label: sg.FallbackLabels[2], Start: b2, End: hi},
	}
}

// labelIntervals expects samples sorted by time with at least one non-empty label.
// Unlabeled samples continue the current run; leading ones join the first labeled run.
func labelIntervals(sorted []dataset.Sample, lo, hi float64) []Interval {
	current := ""
	for _, s := range sorted {
		if s.Phase != "" {
			current = s.Phase
			break
		}
	}

	var runs []Interval
	for _, s := range sorted {
		if s.Phase != "" {
			current = s.Phase
		}
		if len(runs) == 0 {
			runs = append(runs, Interval{Label: current, Start: lo})
			continue
		}
		if last := &runs[len(runs)-1]; last.Label != current {
			last.End = s.Time
			runs = append(runs, Interval{Label: current, Start: s.Time})
		}
	}
	runs[len(runs)-1].End = hi

	if hi <= lo {
		return []Interval{{Label: runs[0].Label, Start: lo, End: hi}}
	}

	// Tied timestamps at a label change leave zero-width runs; dropping them keeps
	// the sequence contiguous, then neighbours with equal labels are merged.
	out := make([]Interval, 0, len(runs))
	for _, r := range runs {
		if r.Width() <= 0 {
			continue
		}
		if n := len(out); n > 0 {
			if out[n-1].Label == r.Label {
				out[n-1].End = r.End
				continue
			}
			out[n-1].End = r.Start
		} else {
			r.Start = lo
		}
		out = append(out, r)
	}
	return out
}

// Transitions returns the interior boundaries of an interval sequence.
func Transitions(intervals []Interval) []float64 {
	if len(intervals) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(intervals)-1)
	for _, iv := range intervals[1:] {
		out = append(out, iv.Start)
	}
	return out
}

// IntervalAt returns the interval containing t. Boundary instants belong to the later interval.
func IntervalAt(intervals []Interval, t float64) (Interval, bool) {
	for i := len(intervals) - 1; i >= 0; i-- {
		if intervals[i].Contains(t) {
			return intervals[i], true
		}
	}
	return Interval{}, false
}
