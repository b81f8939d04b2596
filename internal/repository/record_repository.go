package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ecolehub/ecole-api/internal/models"
)

// RecordRepository reads the attendance and scoring history feeding the
// derived student metrics.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// AttendanceByStudent returns the full attendance history, newest first.
func (r *RecordRepository) AttendanceByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, date, status, notes, created_at
        FROM attendances WHERE student_id = $1 ORDER BY date DESC`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ParticipationsByStudent returns the scored participation entries.
func (r *RecordRepository) ParticipationsByStudent(ctx context.Context, studentID string) ([]models.Participation, error) {
	const query = `SELECT id, student_id, subject, note, date, created_at
        FROM participations WHERE student_id = $1 ORDER BY date DESC`
	var records []models.Participation
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return records, nil
}

// ControlNoteAverage returns the mean control note, nil when the student
// has no graded controls yet.
func (r *RecordRepository) ControlNoteAverage(ctx context.Context, studentID string) (*float64, error) {
	const query = `SELECT AVG(note) FROM control_notes WHERE student_id = $1`
	var avg *float64
	if err := r.db.GetContext(ctx, &avg, query, studentID); err != nil {
		return nil, fmt.Errorf("control average: %w", err)
	}
	return avg, nil
}
