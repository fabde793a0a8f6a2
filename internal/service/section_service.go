package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type sectionRecordReader interface {
	ListByCourse(ctx context.Context, courseID string, openOnly bool) ([]models.SectionRecord, error)
}

// SectionService adapts stored catalog records into engine sections.
type SectionService struct {
	repo          sectionRecordReader
	metrics       *MetricsService
	logger        *zap.Logger
	openSeatsOnly bool
}

// NewSectionService constructs the section store adapter.
func NewSectionService(repo sectionRecordReader, metrics *MetricsService, logger *zap.Logger, openSeatsOnly bool) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, metrics: metrics, logger: logger, openSeatsOnly: openSeatsOnly}
}

// FetchSections returns the offered sections of a course, or an empty slice when none exist.
// Unparsable meetings are kept as asynchronous blocks so a single bad record never hides a section.
func (s *SectionService) FetchSections(ctx context.Context, courseID string) ([]models.Section, error) {
	start := time.Now()
	records, err := s.repo.ListByCourse(ctx, courseID, s.openSeatsOnly)
	s.metrics.ObserveDBQuery("sections.list_by_course", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	sections := make([]models.Section, 0, len(records))
	for _, record := range records {
		sections = append(sections, s.toSection(record))
	}
	return sections, nil
}

func (s *SectionService) toSection(record models.SectionRecord) models.Section {
	section := models.Section{
		CourseID:    record.CourseID,
		SectionID:   record.SectionID,
		Instructors: []string(record.Instructors),
		OpenSeats:   record.OpenSeats,
	}
	if section.Instructors == nil {
		section.Instructors = []string{}
	}

	raws, err := record.RawMeetings()
	if err != nil {
		s.logger.Warn("malformed meeting treated as asynchronous",
			zap.String("course_id", record.CourseID),
			zap.String("section_id", record.SectionID),
			zap.String("meetings", string(record.Meetings)),
			zap.Error(err),
		)
		section.Meetings = []models.Meeting{{Malformed: true}}
		return section
	}

	section.Meetings = make([]models.Meeting, 0, len(raws))
	for _, raw := range raws {
		meeting, err := scheduler.ParseMeeting(raw)
		switch {
		case errors.Is(err, scheduler.ErrMalformedMeeting):
			s.logger.Warn("malformed meeting treated as asynchronous",
				zap.String("course_id", record.CourseID),
				zap.String("section_id", record.SectionID),
				zap.String("days", raw.Days),
				zap.String("start_time", raw.StartTime),
				zap.String("end_time", raw.EndTime),
				zap.Error(err),
			)
		case meeting.Async():
			s.logger.Debug("asynchronous meeting",
				zap.String("course_id", record.CourseID),
				zap.String("section_id", record.SectionID),
			)
		}
		section.Meetings = append(section.Meetings, meeting)
	}
	return section
}
