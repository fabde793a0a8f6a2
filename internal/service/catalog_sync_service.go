package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/pkg/catalog"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
)

// Catalog job types.
const (
	JobImportSections = "catalog.import_sections"
	JobSyncRatings    = "catalog.sync_ratings"
)

type catalogSource interface {
	Sections(ctx context.Context, courseID string) ([]catalog.SectionPayload, error)
	Professor(ctx context.Context, name string) (catalog.ProfessorPayload, error)
}

type sectionCatalogWriter interface {
	UpsertBatch(ctx context.Context, records []models.SectionRecord) error
	ListInstructorNames(ctx context.Context) ([]string, error)
}

type ratingWriter interface {
	Put(ctx context.Context, rating models.InstructorRating) error
	Refresh(ctx context.Context) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type jobQueue interface {
	Register(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
	Status(id string) (jobs.Status, bool)
}

// CatalogSyncConfig tunes outbound catalog traffic. Generations memoised in Cache are
// dropped whenever a job stores new catalog data.
type CatalogSyncConfig struct {
	RequestDelay time.Duration
	Cache        cacheInvalidator
}

// SyncReport summarises one catalog job run.
type SyncReport struct {
	Processed int      `json:"processed"`
	Stored    int      `json:"stored"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed"`
}

// CatalogSyncService imports sections and instructor ratings from the external catalog.
type CatalogSyncService struct {
	source    catalogSource
	sections  sectionCatalogWriter
	ratings   ratingWriter
	queue     jobQueue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	delay     time.Duration
	cache     cacheInvalidator
}

// NewCatalogSyncService wires the service and registers its job handlers on queue.
func NewCatalogSyncService(
	source catalogSource,
	sections sectionCatalogWriter,
	ratings ratingWriter,
	queue jobQueue,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CatalogSyncConfig,
) *CatalogSyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CatalogSyncService{
		source:    source,
		sections:  sections,
		ratings:   ratings,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		delay:     cfg.RequestDelay,
		cache:     cfg.Cache,
	}
	if queue != nil {
		queue.Register(JobImportSections, svc.handleImportSections)
		queue.Register(JobSyncRatings, svc.handleSyncRatings)
	}
	return svc
}

// EnqueueSectionImport queues a section import for the given courses.
func (s *CatalogSyncService) EnqueueSectionImport(_ context.Context, req dto.ImportSectionsRequest) (*dto.JobAcceptedResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section import payload")
	}
	courseIDs := lo.Uniq(lo.Map(req.CourseIDs, func(id string, _ int) string { return normalizeCourseID(id) }))
	return s.enqueue(JobImportSections, courseIDs)
}

// EnqueueRatingSync queues a rating sync. With no names every instructor on a stored section is synced.
func (s *CatalogSyncService) EnqueueRatingSync(_ context.Context, req dto.SyncRatingsRequest) (*dto.JobAcceptedResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating sync payload")
	}
	return s.enqueue(JobSyncRatings, lo.Uniq(req.Instructors))
}

// JobStatus reports a queued job's progress.
func (s *CatalogSyncService) JobStatus(_ context.Context, id string) (*jobs.Status, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "catalog jobs are disabled")
	}
	status, ok := s.queue.Status(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return &status, nil
}

func (s *CatalogSyncService) enqueue(jobType string, payload []string) (*dto.JobAcceptedResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "catalog jobs are disabled")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to queue catalog job")
	}
	return &dto.JobAcceptedResponse{JobID: job.ID, Type: jobType, Status: string(jobs.StateQueued)}, nil
}

func (s *CatalogSyncService) handleImportSections(ctx context.Context, job jobs.Job) error {
	courseIDs, ok := job.Payload.([]string)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	report, err := s.ImportSections(ctx, courseIDs)
	if err != nil {
		return err
	}
	return failedEntirely(report)
}

func (s *CatalogSyncService) handleSyncRatings(ctx context.Context, job jobs.Job) error {
	names, ok := job.Payload.([]string)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	report, err := s.SyncRatings(ctx, names)
	if err != nil {
		return err
	}
	return failedEntirely(report)
}

// failedEntirely turns a run where nothing succeeded into a retryable error.
func failedEntirely(report SyncReport) error {
	if report.Stored == 0 && len(report.Failed) > 0 {
		return fmt.Errorf("all %d catalog items failed", len(report.Failed))
	}
	return nil
}

// ImportSections fetches and stores the sections of each course. Failures are collected per course.
func (s *CatalogSyncService) ImportSections(ctx context.Context, courseIDs []string) (SyncReport, error) {
	report := SyncReport{Failed: []string{}}
	for i, courseID := range courseIDs {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return report, err
			}
		}
		report.Processed++

		payloads, err := s.source.Sections(ctx, courseID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				report.Skipped++
				continue
			}
			s.logger.Warn("catalog section fetch failed", zap.String("course_id", courseID), zap.Error(err))
			s.metrics.RecordCatalogItem(JobImportSections, false)
			report.Failed = append(report.Failed, courseID)
			continue
		}
		if len(payloads) == 0 {
			report.Skipped++
			continue
		}

		records, err := sectionRecords(courseID, payloads)
		if err == nil {
			err = s.sections.UpsertBatch(ctx, records)
		}
		if err != nil {
			s.logger.Warn("catalog section store failed", zap.String("course_id", courseID), zap.Error(err))
			s.metrics.RecordCatalogItem(JobImportSections, false)
			report.Failed = append(report.Failed, courseID)
			continue
		}
		s.metrics.RecordCatalogItem(JobImportSections, true)
		report.Stored += len(records)
	}

	if report.Stored > 0 {
		s.invalidateGenerations(ctx)
	}
	s.logger.Info("catalog section import finished",
		zap.Int("courses", report.Processed),
		zap.Int("sections", report.Stored),
		zap.Int("skipped", report.Skipped),
		zap.Strings("failed", report.Failed),
	)
	return report, nil
}

// SyncRatings refreshes instructor ratings and then reloads the in-process rating cache.
func (s *CatalogSyncService) SyncRatings(ctx context.Context, names []string) (SyncReport, error) {
	report := SyncReport{Failed: []string{}}
	if len(names) == 0 {
		stored, err := s.sections.ListInstructorNames(ctx)
		if err != nil {
			return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
		}
		names = stored
	}
	names = lo.Filter(names, func(name string, _ int) bool {
		trimmed := strings.TrimSpace(name)
		return trimmed != "" && !strings.EqualFold(trimmed, "TBA") && !strings.HasPrefix(strings.ToLower(trimmed), "instructor:")
	})

	for i, name := range names {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return report, err
			}
		}
		report.Processed++

		professor, err := s.source.Professor(ctx, name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				report.Skipped++
				continue
			}
			s.logger.Warn("rating fetch failed", zap.String("instructor", name), zap.Error(err))
			s.metrics.RecordCatalogItem(JobSyncRatings, false)
			report.Failed = append(report.Failed, name)
			continue
		}

		rating := models.InstructorRating{
			Name:          name,
			AverageRating: clampRating(professor.AverageRating),
			ReviewCount:   professor.ReviewCount(),
		}
		if err := s.ratings.Put(ctx, rating); err != nil {
			s.logger.Warn("rating store failed", zap.String("instructor", name), zap.Error(err))
			s.metrics.RecordCatalogItem(JobSyncRatings, false)
			report.Failed = append(report.Failed, name)
			continue
		}
		s.metrics.RecordCatalogItem(JobSyncRatings, true)
		report.Stored++
	}

	if report.Stored > 0 {
		if err := s.ratings.Refresh(ctx); err != nil {
			s.logger.Warn("rating cache refresh failed", zap.Error(err))
		}
		s.invalidateGenerations(ctx)
	}
	s.logger.Info("instructor rating sync finished",
		zap.Int("instructors", report.Processed),
		zap.Int("stored", report.Stored),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *CatalogSyncService) invalidateGenerations(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, generationCachePrefix+"*"); err != nil {
		s.logger.Warn("generation cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogSyncService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func sectionRecords(courseID string, payloads []catalog.SectionPayload) ([]models.SectionRecord, error) {
	records := make([]models.SectionRecord, 0, len(payloads))
	for _, payload := range payloads {
		meetings := lo.Map(payload.Meetings, func(m catalog.MeetingPayload, _ int) models.RawMeeting {
			return models.RawMeeting{
				Days:      m.Days,
				StartTime: m.StartTime,
				EndTime:   m.EndTime,
				Building:  m.Building,
				Room:      m.Room,
				ClassType: m.ClassType,
			}
		})
		encoded, err := json.Marshal(meetings)
		if err != nil {
			return nil, fmt.Errorf("encode meetings for %s: %w", payload.SectionID, err)
		}
		course := normalizeCourseID(lo.Ternary(payload.CourseID != "", payload.CourseID, courseID))
		records = append(records, models.SectionRecord{
			CourseID:    course,
			SectionID:   strings.TrimPrefix(payload.SectionID, course+"-"),
			Seats:       payload.Seats,
			OpenSeats:   payload.OpenSeats,
			Waitlist:    payload.Waitlist,
			Instructors: pq.StringArray(lo.Compact(payload.Instructors)),
			Meetings:    encoded,
		})
	}
	return records, nil
}

func clampRating(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 5:
		return 5
	default:
		return v
	}
}
