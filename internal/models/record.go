package models

import "time"

// Attendance is a single daily attendance row for a student.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participation is a scored classroom participation entry.
type Participation struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	Note      float64   `db:"note" json:"note"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ControlNote is a graded written control; its average feeds the overall
// performance label.
type ControlNote struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	Note      float64   `db:"note" json:"note"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
