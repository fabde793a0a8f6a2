package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const sectionColumns = `id, course_id, section_id, seats, open_seats, waitlist, instructors, meetings, updated_at`

// SectionRepository reads and writes catalog sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListByCourse returns the stored sections of a course ordered by section id.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID string, openOnly bool) ([]models.SectionRecord, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE course_id = $1`
	if openOnly {
		query += ` AND open_seats > 0`
	}
	query += ` ORDER BY section_id`

	var records []models.SectionRecord
	if err := r.db.SelectContext(ctx, &records, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections for %s: %w", courseID, err)
	}
	return records, nil
}

// UpsertBatch stores sections in one transaction keyed by (course_id, section_id).
func (r *SectionRepository) UpsertBatch(ctx context.Context, records []models.SectionRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `INSERT INTO sections (` + sectionColumns + `)
		VALUES (:id, :course_id, :section_id, :seats, :open_seats, :waitlist, :instructors, :meetings, :updated_at)
		ON CONFLICT (course_id, section_id) DO UPDATE
		SET seats = EXCLUDED.seats,
		    open_seats = EXCLUDED.open_seats,
		    waitlist = EXCLUDED.waitlist,
		    instructors = EXCLUDED.instructors,
		    meetings = EXCLUDED.meetings,
		    updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	for i := range records {
		record := &records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if len(record.Meetings) == 0 {
			record.Meetings = []byte("[]")
		}
		record.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
			return fmt.Errorf("upsert section %s/%s: %w", record.CourseID, record.SectionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit section upsert: %w", err)
	}
	return nil
}

// ListInstructorNames returns every distinct instructor named on a stored section.
func (r *SectionRepository) ListInstructorNames(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT unnest(instructors) AS name FROM sections ORDER BY name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list instructor names: %w", err)
	}
	return names, nil
}
