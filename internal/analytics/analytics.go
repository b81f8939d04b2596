// Package analytics computes the derived student metrics shown on profile
// views. Everything here is a pure function over records already fetched;
// nothing is persisted and values are recomputed on every read.
package analytics

import (
	"math"
	"strconv"
	"strings"
)

// Attendance statuses as stored.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// AttendanceStats counts attendance records by status.
type AttendanceStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

// CountAttendance tallies statuses after lowercase normalization. Values
// outside the three known statuses are a schema violation upstream and are
// ignored here.
func CountAttendance(statuses []string) AttendanceStats {
	var stats AttendanceStats
	for _, s := range statuses {
		switch strings.ToLower(s) {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		}
	}
	return stats
}

// Total returns the number of counted records.
func (s AttendanceStats) Total() int {
	return s.Present + s.Absent + s.Late
}

// Percentage formats the presence rate to one decimal place. A student with
// no records yields "0", never NaN.
func (s AttendanceStats) Percentage() string {
	total := s.Total()
	if total == 0 {
		return "0"
	}
	rate := float64(s.Present) / float64(total) * 100
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

// ParticipationAverage is the arithmetic mean of the notes rounded to two
// decimals, 0 for an empty list.
func ParticipationAverage(notes []float64) float64 {
	if len(notes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range notes {
		sum += n
	}
	return math.Round(sum/float64(len(notes))*100) / 100
}

// Performance labels, ordered from best to worst.
const (
	PerformanceExcellent = "Excellent"
	PerformanceVeryGood  = "Très bien"
	PerformanceGood      = "Bien"
	PerformanceFair      = "Assez bien"
	PerformanceToImprove = "À améliorer"
	PerformanceUnknown   = "N/A"
)

// OverallPerformance maps the mean of the participation average and the
// control-note average onto a qualitative label. Thresholds are inclusive
// lower bounds checked from highest to lowest. A nil control average yields
// "N/A" regardless of participation.
func OverallPerformance(participationAvg float64, controlAvg *float64) string {
	if controlAvg == nil {
		return PerformanceUnknown
	}
	avg := (participationAvg + *controlAvg) / 2
	switch {
	case avg >= 16:
		return PerformanceExcellent
	case avg >= 14:
		return PerformanceVeryGood
	case avg >= 12:
		return PerformanceGood
	case avg >= 10:
		return PerformanceFair
	default:
		return PerformanceToImprove
	}
}

// PerformanceColor returns the badge color used next to a label.
func PerformanceColor(label string) string {
	switch label {
	case PerformanceExcellent:
		return "green"
	case PerformanceVeryGood:
		return "lime"
	case PerformanceGood:
		return "yellow"
	case PerformanceFair:
		return "orange"
	default:
		return "red"
	}
}

// AttendanceColor returns the badge color for an attendance status.
func AttendanceColor(status string) string {
	switch strings.ToLower(status) {
	case StatusPresent:
		return "green"
	case StatusAbsent:
		return "red"
	case StatusLate:
		return "yellow"
	default:
		return "gray"
	}
}

// GradeColor returns the badge color for a note on the 0-20 scale, same
// inclusive bounds as the performance labels.
func GradeColor(note float64) string {
	switch {
	case note >= 16:
		return "green"
	case note >= 14:
		return "lime"
	case note >= 12:
		return "yellow"
	case note >= 10:
		return "orange"
	default:
		return "red"
	}
}
