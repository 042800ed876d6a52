package dataset

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/user/cbf_explorer_go/internal/parser"
)

// Dataset is the immutable, subject-indexed collection of samples built at load.
// Accessors return fresh slices; the backing arrays are never handed out.
// Sample.Channels maps are shared between views and must be treated as read-only.
type Dataset struct {
	samples   []Sample            // Input order
	bySubject map[string][]Sample // Stable-sorted by time
	subjects  []string            // First-occurrence order
	channels  []string            // Header order
	warnings  []string
}

// LoadTable builds a Dataset from a parsed CSV table.
func LoadTable(table *parser.RawTable, cols Columns) (*Dataset, error) {
	if table == nil {
		return nil, &MalformedInputError{Reason: "no table to load"}
	}
	ds, err := load(table.Rows, cols, table.Columns)
	if err != nil {
		return nil, err
	}
	ds.warnings = append(slices.Clone(table.ParseErrors), ds.warnings...)
	for _, c := range table.DroppedColumns {
		ds.warnings = append(ds.warnings, fmt.Sprintf("Dropped placeholder column '%s'.", c))
	}
	return ds, nil
}

// Load coerces raw rows into Samples and indexes them by subject.
// Channel values that fail numeric coercion become NaN. A row without a subject id
// or without a numeric time is malformed; a row whose channels are all missing is
// kept with NaN channels and noted in Warnings.
// Channels are ordered by name; use LoadTable to keep header order.
func Load(rows []parser.RawRow, cols Columns) (*Dataset, error) {
	return load(rows, cols, nil)
}

func load(rows []parser.RawRow, cols Columns, header []string) (*Dataset, error) {
	if cols.Subject == "" || cols.Time == "" {
		return nil, &MalformedInputError{Reason: "subject and time column names are required"}
	}

	ds := &Dataset{
		samples:   make([]Sample, 0, len(rows)),
		bySubject: make(map[string][]Sample),
		subjects:  make([]string, 0),
		channels:  channelColumns(rows, cols, header),
		warnings:  make([]string, 0),
	}

	for i, row := range rows {
		rowNum := i + 1
		subject := strings.TrimSpace(row[cols.Subject])
		if subject == "" {
			return nil, &MalformedInputError{Row: rowNum, Column: cols.Subject, Reason: "no subject id"}
		}

		rawTime, ok := row[cols.Time]
		if !ok {
			return nil, &MalformedInputError{Row: rowNum, Column: cols.Time, Reason: "time column missing"}
		}
		t, ok := coerce(rawTime)
		if !ok {
			return nil, &MalformedInputError{Row: rowNum, Column: cols.Time, Reason: fmt.Sprintf("time '%s' is not numeric", rawTime)}
		}

		s := Sample{
			SubjectID: subject,
			Time:      t,
			Channels:  make(map[string]float64, len(ds.channels)),
		}
		if cols.Phase != "" {
			s.Phase = strings.TrimSpace(row[cols.Phase])
		}

		numeric := 0
		for _, ch := range ds.channels {
			raw, present := row[ch]
			v, ok := coerce(raw)
			if !ok {
				v = math.NaN()
				if present && strings.TrimSpace(raw) != "" {
					ds.warnings = append(ds.warnings, fmt.Sprintf("Row %d: value '%s' for '%s' is not numeric. Using NaN.", rowNum, raw, ch))
				}
			} else {
				numeric++
			}
			s.Channels[ch] = v
		}
		if numeric == 0 && len(ds.channels) > 0 {
			ds.warnings = append(ds.warnings, fmt.Sprintf("Row %d: no channel values for subject '%s' at time %g. Keeping row with NaN channels.", rowNum, subject, t))
		}

		if _, seen := ds.bySubject[subject]; !seen {
			ds.subjects = append(ds.subjects, subject)
		}
		ds.bySubject[subject] = append(ds.bySubject[subject], s)
		ds.samples = append(ds.samples, s)
	}

	for _, subjectSamples := range ds.bySubject {
		sort.SliceStable(subjectSamples, func(i, j int) bool {
			return subjectSamples[i].Time < subjectSamples[j].Time
		})
	}

	return ds, nil
}

// channelColumns lists every non-placeholder column other than subject, time and phase.
// Header columns come first in header order; keys only found in rows follow, sorted.
func channelColumns(rows []parser.RawRow, cols Columns, header []string) []string {
	isChannel := func(name string) bool {
		if parser.IsPlaceholderColumn(name) {
			return false
		}
		return name != cols.Subject && name != cols.Time && name != cols.Phase
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(header))
	for _, name := range header {
		if !seen[name] && isChannel(name) {
			seen[name] = true
			names = append(names, name)
		}
	}

	var extra []string
	for _, row := range rows {
		for name := range row {
			if seen[name] || !isChannel(name) {
				continue
			}
			seen[name] = true
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func coerce(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// Subjects returns distinct subject ids in first-occurrence order.
func (d *Dataset) Subjects() []string {
	return slices.Clone(d.subjects)
}

// SamplesFor returns a subject's samples in ascending time. Unknown ids yield an empty slice.
func (d *Dataset) SamplesFor(subjectID string) []Sample {
	src := d.bySubject[subjectID]
	out := make([]Sample, len(src))
	copy(out, src)
	return out
}

// SamplesForPhase returns the subject's samples whose phase equals phase exactly.
func (d *Dataset) SamplesForPhase(subjectID, phase string) []Sample {
	src := d.bySubject[subjectID]
	out := make([]Sample, 0, len(src))
	for _, s := range src {
		if s.Phase == phase {
			out = append(out, s)
		}
	}
	return out
}

// Channels returns the measurement channel names.
func (d *Dataset) Channels() []string {
	return slices.Clone(d.channels)
}

// HasChannel reports whether name is a loaded measurement channel.
func (d *Dataset) HasChannel(name string) bool {
	return slices.Contains(d.channels, name)
}

// Len is the total number of samples.
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Warnings returns non-fatal notes collected while loading.
func (d *Dataset) Warnings() []string {
	return slices.Clone(d.warnings)
}
