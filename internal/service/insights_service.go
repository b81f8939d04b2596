package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecolehub/ecole-api/internal/analytics"
	"github.com/ecolehub/ecole-api/internal/models"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

type recordRepository interface {
	AttendanceByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	ParticipationsByStudent(ctx context.Context, studentID string) ([]models.Participation, error)
	ControlNoteAverage(ctx context.Context, studentID string) (*float64, error)
}

// InsightsService computes the derived performance snapshot of a student,
// cache-aside over Redis since the inputs change rarely within a session.
type InsightsService struct {
	records  recordRepository
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewInsightsService constructs the insights service.
func NewInsightsService(records recordRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *InsightsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &InsightsService{records: records, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

func insightsKey(studentID string) string {
	return fmt.Sprintf("insights:student:%s", studentID)
}

// StudentInsights returns the snapshot for one student, recomputing it on
// a cache miss.
func (s *InsightsService) StudentInsights(ctx context.Context, studentID string) (*models.StudentInsights, error) {
	var cached models.StudentInsights
	if hit, _ := s.cache.Get(ctx, insightsKey(studentID), &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	attendance, err := s.records.AttendanceByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	participations, err := s.records.ParticipationsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participations")
	}
	controlAvg, err := s.records.ControlNoteAverage(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load control notes")
	}
	s.metrics.ObserveDBQuery("student_insights", time.Since(start))

	statuses := make([]string, len(attendance))
	for i, rec := range attendance {
		statuses[i] = rec.Status
	}
	notes := make([]float64, len(participations))
	for i, rec := range participations {
		notes[i] = rec.Note
	}

	stats := analytics.CountAttendance(statuses)
	participationAvg := analytics.ParticipationAverage(notes)
	performance := analytics.OverallPerformance(participationAvg, controlAvg)

	insights := &models.StudentInsights{
		StudentID:            studentID,
		Present:              stats.Present,
		Absent:               stats.Absent,
		Late:                 stats.Late,
		AttendanceRate:       stats.Percentage(),
		ParticipationAverage: participationAvg,
		Performance:          performance,
		PerformanceColor:     analytics.PerformanceColor(performance),
	}
	if err := s.cache.Set(ctx, insightsKey(studentID), insights, s.cacheTTL); err != nil {
		s.logger.Warn("insights cache set failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return insights, nil
}

// InvalidateStudent drops the cached snapshot after a write to the
// underlying records.
func (s *InsightsService) InvalidateStudent(ctx context.Context, studentID string) error {
	return s.cache.Invalidate(ctx, insightsKey(studentID))
}
