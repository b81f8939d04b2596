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

type mockClassRepo struct {
	classes map[string]models.Class
	groups  []models.ClassGroup
	created *models.Class
	updated *models.Class
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var out []models.ClassDetail
	for _, c := range m.classes {
		out = append(out, models.ClassDetail{Class: c})
	}
	return out, len(out), nil
}

func (m *mockClassRepo) GroupedByGrade(ctx context.Context, schoolID string) ([]models.ClassGroup, error) {
	return m.groups, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = "new-class"
	}
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	m.classes[class.ID] = *class
	m.created = class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = *class
	m.updated = class
	return nil
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, nil)

	class, err := svc.Create(context.Background(), models.CreateClassRequest{
		Name: "6e A", Grade: "6e", SchoolID: schoolUUID,
	})
	require.NoError(t, err)
	assert.Equal(t, "6e A", class.Name)
	assert.NotEmpty(t, class.ID)
}

func TestClassServiceCreateRejectsInvalidPayload(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateClassRequest{Name: "X"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestClassServiceUpdateKeepsUnsetFields(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "6e A", Grade: "6e", SchoolID: schoolUUID},
	}}
	svc := NewClassService(repo, nil, nil)

	newName := "6e B"
	updated, err := svc.Update(context.Background(), "c1", models.UpdateClassRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "6e B", updated.Name)
	assert.Equal(t, "6e", updated.Grade, "unset field keeps stored value")
}

func TestClassServiceUpdateNotFound(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil)

	name := "6e B"
	_, err := svc.Update(context.Background(), "missing", models.UpdateClassRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassServiceGrouped(t *testing.T) {
	repo := &mockClassRepo{groups: []models.ClassGroup{
		{Grade: "6e", Classes: []models.Class{{ID: "c1"}, {ID: "c2"}}},
		{Grade: "5e", Classes: []models.Class{{ID: "c3"}}},
	}}
	svc := NewClassService(repo, nil, nil)

	groups, err := svc.Grouped(context.Background(), schoolUUID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Classes, 2)
}
