package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type mockRecordRepo struct {
	attendance     []models.Attendance
	participations []models.Participation
	controlAvg     *float64
	calls          int
}

func (m *mockRecordRepo) AttendanceByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	m.calls++
	return m.attendance, nil
}

func (m *mockRecordRepo) ParticipationsByStudent(ctx context.Context, studentID string) ([]models.Participation, error) {
	return m.participations, nil
}

func (m *mockRecordRepo) ControlNoteAverage(ctx context.Context, studentID string) (*float64, error) {
	return m.controlAvg, nil
}

type memoryCacheRepo struct {
	store map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.store = make(map[string][]byte)
	return nil
}

func TestStudentInsightsComputesSnapshot(t *testing.T) {
	ctrl := 13.0
	records := &mockRecordRepo{
		attendance: []models.Attendance{
			{Status: "present"}, {Status: "present"}, {Status: "present"},
			{Status: "absent"}, {Status: "late"},
		},
		participations: []models.Participation{{Note: 14}, {Note: 16}},
		controlAvg:     &ctrl,
	}
	svc := NewInsightsService(records, NewCacheService(nil, nil, 0, nil, false), nil, 0, nil)

	insights, err := svc.StudentInsights(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, 3, insights.Present)
	assert.Equal(t, 1, insights.Absent)
	assert.Equal(t, 1, insights.Late)
	assert.Equal(t, "60.0", insights.AttendanceRate)
	assert.Equal(t, 15.0, insights.ParticipationAverage)
	// (15 + 13) / 2 = 14
	assert.Equal(t, "Très bien", insights.Performance)
	assert.Equal(t, "lime", insights.PerformanceColor)
}

func TestStudentInsightsWithoutControlNotes(t *testing.T) {
	records := &mockRecordRepo{participations: []models.Participation{{Note: 18}}}
	svc := NewInsightsService(records, NewCacheService(nil, nil, 0, nil, false), nil, 0, nil)

	insights, err := svc.StudentInsights(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "N/A", insights.Performance)
	assert.Equal(t, "0", insights.AttendanceRate)
}

func TestStudentInsightsUsesCache(t *testing.T) {
	ctrl := 12.0
	records := &mockRecordRepo{controlAvg: &ctrl}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)
	svc := NewInsightsService(records, cache, nil, time.Minute, nil)

	_, err := svc.StudentInsights(context.Background(), "s1")
	require.NoError(t, err)
	_, err = svc.StudentInsights(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, records.calls, "second read must come from cache")

	require.NoError(t, svc.InvalidateStudent(context.Background(), "s1"))
	_, err = svc.StudentInsights(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, records.calls)
}
