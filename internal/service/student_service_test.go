package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.StudentDetail
	numbers  map[string]bool
	created  *models.Student
	updated  *models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByIDNumber(ctx context.Context, idNumber string, excludeID string) (bool, error) {
	return m.numbers[idNumber], nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "new-student"
	}
	if m.students == nil {
		m.students = make(map[string]models.StudentDetail)
	}
	m.students[student.ID] = models.StudentDetail{Student: *student}
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = models.StudentDetail{Student: *student}
	m.updated = student
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	delete(m.students, id)
	return nil
}

const schoolUUID = "0d5f3a7b-1c2d-4e5f-8a9b-0c1d2e3f4a5b"

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, nil)

	dob := "2015-04-01"
	student, err := svc.Create(context.Background(), models.CreateStudentRequest{
		IDNumber:    "A0000001",
		FirstName:   "Jean",
		LastName:    "Kouassi",
		Gender:      "M",
		DateOfBirth: &dob,
		SchoolID:    schoolUUID,
	})
	require.NoError(t, err)
	assert.Equal(t, "A0000001", student.IDNumber)
	require.NotNil(t, student.DateOfBirth)
}

func TestStudentServiceCreateRejectsDuplicateNumber(t *testing.T) {
	repo := &mockStudentRepo{numbers: map[string]bool{"A0000001": true}}
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateStudentRequest{
		IDNumber: "A0000001", FirstName: "Jean", LastName: "Kouassi", Gender: "M", SchoolID: schoolUUID,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceUpdateKeepsUnsetFields(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", IDNumber: "A0000001", FirstName: "Jean", LastName: "Kouassi", Gender: "M"}},
	}}
	svc := NewStudentService(repo, nil, nil)

	newLast := "Kone"
	updated, err := svc.Update(context.Background(), "s1", models.UpdateStudentRequest{LastName: &newLast})
	require.NoError(t, err)
	assert.Equal(t, "Kone", updated.LastName)
	assert.Equal(t, "Jean", updated.FirstName, "unset field keeps stored value")
}
