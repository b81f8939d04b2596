package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRepositoryAttendanceByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "notes", "created_at"}).
		AddRow("a1", "s1", time.Now(), "present", nil, time.Now()).
		AddRow("a2", "s1", time.Now(), "late", nil, time.Now())
	mock.ExpectQuery("SELECT id, student_id, date, status").
		WithArgs("s1").
		WillReturnRows(rows)

	records, err := repo.AttendanceByStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryControlNoteAverage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery("SELECT AVG").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(13.0))

	avg, err := repo.ControlNoteAverage(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 13.0, *avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryControlNoteAverageNoGrades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery("SELECT AVG").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.ControlNoteAverage(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, avg, "no controls yet must stay nil, not zero")
	assert.NoError(t, mock.ExpectationsWereMet())
}
