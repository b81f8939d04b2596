package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type mockStudentBulkRepo struct {
	created []*models.Student
	err     error
}

func (m *mockStudentBulkRepo) BulkCreate(ctx context.Context, students []*models.Student) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, students...)
	return nil
}

func TestImportStudentsPersistsCleanFile(t *testing.T) {
	repo := &mockStudentBulkRepo{}
	svc := NewImportService(repo, nil, nil, 0)

	data := []byte("idNumber,firstName,lastName,gender,dateOfBirth\n" +
		"A0000001,Jean,Kouassi,M,2015-04-01\n" +
		"A0000002,Awa,Diallo,F,\n")
	result, err := svc.ImportStudents(context.Background(), data, "students.csv", "school-1")
	require.NoError(t, err)
	assert.True(t, result.OK())

	require.Len(t, repo.created, 2)
	assert.Equal(t, "A0000001", repo.created[0].IDNumber)
	assert.Equal(t, "school-1", repo.created[0].SchoolID)
	require.NotNil(t, repo.created[0].DateOfBirth)
	assert.Equal(t, "2015-04-01", repo.created[0].DateOfBirth.Format("2006-01-02"))
	assert.Nil(t, repo.created[1].DateOfBirth)
}

func TestImportStudentsSkipsPersistenceOnRowErrors(t *testing.T) {
	repo := &mockStudentBulkRepo{}
	svc := NewImportService(repo, nil, nil, 0)

	data := []byte("idNumber,firstName,lastName,gender\n" +
		"A0000001,Jean,Kouassi,X\n")
	result, err := svc.ImportStudents(context.Background(), data, "students.csv", "school-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RowErrors)
	assert.Empty(t, repo.created, "invalid file must not be persisted")
	require.NotNil(t, result.Banner)
	assert.False(t, result.Banner.Success)
}

func TestImportStudentsSurfacesFatalFileError(t *testing.T) {
	repo := &mockStudentBulkRepo{}
	svc := NewImportService(repo, nil, nil, 0)

	_, err := svc.ImportStudents(context.Background(), []byte("x"), "students.txt", "school-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupportedFileType))
	assert.Empty(t, repo.created)
}

func TestImportStudentsWrapsPersistenceFailure(t *testing.T) {
	repo := &mockStudentBulkRepo{err: assert.AnError}
	svc := NewImportService(repo, nil, nil, 0)

	data := []byte("idNumber,firstName,lastName,gender\nA0000001,Jean,Kouassi,M\n")
	_, err := svc.ImportStudents(context.Background(), data, "students.csv", "school-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
