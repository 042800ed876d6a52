package dataset

import (
	"fmt"
	"math"
)

// Phase labels recorded in the sit-to-stand protocol.
const (
	PhaseResting   = "Resting"
	PhasePreparing = "Preparing"
	PhaseStanding  = "Standing"
	PhaseSitting   = "Sitting"
)

// Measurement channels plotted by the dashboard views.
const (
	ChannelBloodPressure = "Blood_pressure"
	ChannelRightMCABFV   = "right_MCA_BFV"
	ChannelLeftMCABFV    = "left_MCA_BFV"
	ChannelRespiration   = "resp_uncalibrated"
	ChannelIR850         = "i1_850"
	ChannelIR805         = "i1_805"
)

// DefaultChannels are the time-series channels shown by default.
var DefaultChannels = []string{ChannelBloodPressure, ChannelRightMCABFV, ChannelLeftMCABFV, ChannelRespiration}

// Columns names the non-channel columns of the input file.
type Columns struct {
	Subject string
	Time    string
	Phase   string // Optional; empty disables phase labels
}

// DefaultColumns matches the headers of the combined study export.
func DefaultColumns() Columns {
	return Columns{Subject: "Subject", Time: "Time", Phase: "Phase"}
}

// Sample is one timestamped row of channel values for one subject.
type Sample struct {
	SubjectID string
	Time      float64 // Seconds
	Phase     string  // Empty when the row carries no label
	Channels  map[string]float64
}

// Value returns a channel value and whether it is present (not missing or NaN).
func (s Sample) Value(channel string) (float64, bool) {
	v, ok := s.Channels[channel]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// MalformedInputError reports a row or column that cannot become a Sample.
type MalformedInputError struct {
	Row    int // 1-based data row, 0 when the problem is the header
	Column string
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("malformed input at row %d, column '%s': %s", e.Row, e.Column, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("malformed input at row %d: %s", e.Row, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("malformed input, column '%s': %s", e.Column, e.Reason)
	}
	return "malformed input: " + e.Reason
}
