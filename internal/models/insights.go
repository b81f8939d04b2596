package models

// StudentInsights is the derived performance snapshot for one student. It
// is computed on demand from attendance and participation history, never
// persisted.
type StudentInsights struct {
	StudentID            string  `json:"student_id"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	Late                 int     `json:"late"`
	AttendanceRate       string  `json:"attendance_rate"`
	ParticipationAverage float64 `json:"participation_average"`
	Performance          string  `json:"performance"`
	PerformanceColor     string  `json:"performance_color"`
}
