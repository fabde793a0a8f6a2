package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/export"
)

const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type scheduleResultReader interface {
	Result(ctx context.Context, id string) (*dto.GenerateScheduleResponse, error)
}

type csvRenderer interface {
	Render(rows interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ScheduleRow is one course of an exported schedule.
type ScheduleRow struct {
	Rank        int     `csv:"rank"`
	CourseID    string  `csv:"course"`
	Title       string  `csv:"title"`
	Credits     int     `csv:"credits"`
	SectionID   string  `csv:"section"`
	Instructors string  `csv:"instructors"`
	Meetings    string  `csv:"meetings"`
	Location    string  `csv:"location"`
	Score       float64 `csv:"section_score"`
}

func (r ScheduleRow) cells() []string {
	return []string{
		r.CourseID,
		r.Title,
		strconv.Itoa(r.Credits),
		r.SectionID,
		r.Instructors,
		r.Meetings,
		r.Location,
		strconv.FormatFloat(r.Score, 'f', 3, 64),
	}
}

var pdfHeaders = []string{"course", "title", "credits", "section", "instructors", "meetings", "location", "score"}

// ExportService renders stored schedule results as downloads.
type ExportService struct {
	results   scheduleResultReader
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(results scheduleResultReader, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(map[string]float64{"course": 25, "credits": 18, "section": 20, "score": 18})
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{results: results, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// Export renders the schedule at the requested rank (1-based, default 1) of a stored result.
func (s *ExportService) Export(ctx context.Context, resultID string, query dto.ExportScheduleQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = ExportFormatCSV
	}
	rank := query.Rank
	if rank <= 0 {
		rank = 1
	}

	result, err := s.results.Result(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if rank > len(result.Schedules) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("result has %d schedules, rank %d not available", len(result.Schedules), rank))
	}
	schedule := result.Schedules[rank-1]
	rows := scheduleRows(rank, schedule)
	base := fmt.Sprintf("schedule-%s-rank%d", shortID(resultID), rank)

	switch format {
	case ExportFormatPDF:
		dataset := export.Dataset{
			Headers: pdfHeaders,
			Rows:    lo.Map(rows, func(r ScheduleRow, _ int) []string { return r.cells() }),
			Footer: []string{
				fmt.Sprintf("Total credits: %d", schedule.TotalCredits),
				fmt.Sprintf("Schedule score: %.3f", schedule.TotalScore),
			},
		}
		body, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule option %d", rank))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportFile{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	}
}

func scheduleRows(rank int, schedule models.Schedule) []ScheduleRow {
	return lo.Map(schedule.Entries, func(entry models.ScheduleEntry, _ int) ScheduleRow {
		return ScheduleRow{
			Rank:        rank,
			CourseID:    entry.Course.ID,
			Title:       entry.Course.Title,
			Credits:     entry.Course.Credits,
			SectionID:   entry.Section.SectionID,
			Instructors: entry.Section.InstructorLabel(),
			Meetings:    strings.Join(lo.Map(entry.Section.Meetings, func(m models.Meeting, _ int) string { return describeMeeting(m) }), "; "),
			Location: strings.Join(lo.Compact(lo.Map(entry.Section.Meetings, func(m models.Meeting, _ int) string {
				return strings.TrimSpace(m.Building + " " + m.Room)
			})), "; "),
			Score: entry.Section.Score,
		}
	})
}

func describeMeeting(m models.Meeting) string {
	if m.Async() {
		return "Async"
	}
	return fmt.Sprintf("%s %s-%s", m.Days, scheduler.FormatClock(m.StartMinute), scheduler.FormatClock(m.EndMinute))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
