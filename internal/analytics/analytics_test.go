package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountAttendanceNormalizesCase(t *testing.T) {
	stats := CountAttendance([]string{"present", "Present", "ABSENT", "late", "late"})

	assert.Equal(t, 2, stats.Present)
	assert.Equal(t, 1, stats.Absent)
	assert.Equal(t, 2, stats.Late)
	assert.Equal(t, 5, stats.Total())
}

func TestAttendancePercentage(t *testing.T) {
	stats := AttendanceStats{Present: 37, Absent: 2, Late: 1}
	assert.Equal(t, "92.5", stats.Percentage())

	assert.Equal(t, "0", AttendanceStats{}.Percentage(), "empty history is 0, not NaN")

	all := AttendanceStats{Present: 10}
	assert.Equal(t, "100.0", all.Percentage())
}

func TestParticipationAverage(t *testing.T) {
	assert.Equal(t, float64(0), ParticipationAverage(nil))
	assert.Equal(t, 14.33, ParticipationAverage([]float64{13, 14, 16}))
	assert.Equal(t, 15.0, ParticipationAverage([]float64{15}))
}

func TestOverallPerformanceThresholds(t *testing.T) {
	ctrl := func(v float64) *float64 { return &v }

	// participation 15, control 13 -> mean 14 -> Très bien
	assert.Equal(t, "Très bien", OverallPerformance(15, ctrl(13)))

	assert.Equal(t, "Excellent", OverallPerformance(16, ctrl(16)))
	assert.Equal(t, "Bien", OverallPerformance(12, ctrl(12)))
	assert.Equal(t, "Assez bien", OverallPerformance(10, ctrl(10)))
	assert.Equal(t, "À améliorer", OverallPerformance(9.9, ctrl(9.9)))

	assert.Equal(t, "N/A", OverallPerformance(18, nil), "no control notes, no label")
}

func TestPerformanceColor(t *testing.T) {
	assert.Equal(t, "green", PerformanceColor(PerformanceExcellent))
	assert.Equal(t, "lime", PerformanceColor(PerformanceVeryGood))
	assert.Equal(t, "red", PerformanceColor("N/A"))
}

func TestAttendanceColor(t *testing.T) {
	assert.Equal(t, "green", AttendanceColor("present"))
	assert.Equal(t, "red", AttendanceColor("Absent"))
	assert.Equal(t, "yellow", AttendanceColor("late"))
	assert.Equal(t, "gray", AttendanceColor("excused"))
}

func TestGradeColor(t *testing.T) {
	assert.Equal(t, "green", GradeColor(16))
	assert.Equal(t, "lime", GradeColor(14.5))
	assert.Equal(t, "yellow", GradeColor(12))
	assert.Equal(t, "orange", GradeColor(10))
	assert.Equal(t, "red", GradeColor(9.99))
}
