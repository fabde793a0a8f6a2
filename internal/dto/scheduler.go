package dto

import (
	"time"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// Exclusion reasons reported for candidate courses that never reach the search.
const (
	ExcludedCompleted        = "COMPLETED"
	ExcludedPrerequisites    = "PREREQUISITES_UNMET"
	ExcludedDuplicate        = "DUPLICATE"
	ExcludedNoSections       = "NO_SECTIONS"
	ExcludedLookupFailed     = "LOOKUP_FAILED"
	ExcludedDeadlineExceeded = "DEADLINE_EXCEEDED"
)

// CourseInput is one candidate course supplied by the caller.
type CourseInput struct {
	ID               string   `json:"id" validate:"required,max=32"`
	Title            string   `json:"title" validate:"omitempty,max=200"`
	Credits          int      `json:"credits" validate:"min=0,max=12"`
	Categories       []string `json:"categories" validate:"omitempty,max=16,dive,required"`
	PreferenceScore  float64  `json:"preferenceScore" validate:"min=0,max=1"`
	IsMajorCourse    bool     `json:"isMajorCourse"`
	PrerequisitesMet *bool    `json:"prerequisitesMet,omitempty"`
}

// Model converts the input into the engine's course type.
func (c CourseInput) Model() models.Course {
	return models.Course{
		ID:              c.ID,
		Title:           c.Title,
		Credits:         c.Credits,
		Categories:      c.Categories,
		PreferenceScore: c.PreferenceScore,
		IsMajorCourse:   c.IsMajorCourse,
	}
}

// GenerateScheduleRequest asks for ranked schedules near a credit target.
type GenerateScheduleRequest struct {
	Courses          []CourseInput `json:"courses" validate:"required,min=1,max=64,dive"`
	TargetCredits    int           `json:"targetCredits" validate:"required,min=1,max=40"`
	Tolerance        *int          `json:"tolerance,omitempty" validate:"omitempty,min=0,max=12"`
	MaxResults       *int          `json:"maxResults,omitempty" validate:"omitempty,min=1,max=20"`
	Strategy         string        `json:"strategy,omitempty" validate:"omitempty,oneof=dp dfs"`
	CompletedCourses []string      `json:"completedCourses,omitempty" validate:"omitempty,max=200,dive,required"`
}

// ExcludedCourse names a candidate dropped before search and why.
type ExcludedCourse struct {
	CourseID string `json:"courseId"`
	Reason   string `json:"reason"`
}

// GenerationStats summarises one generation run.
type GenerationStats struct {
	Requested     int     `json:"requested"`
	Eligible      int     `json:"eligible"`
	Resolved      int     `json:"resolved"`
	States        int     `json:"states"`
	Candidates    int     `json:"candidates"`
	Truncated     bool    `json:"truncated"`
	Strategy      string  `json:"strategy"`
	TargetCredits int     `json:"targetCredits"`
	Tolerance     int     `json:"tolerance"`
	MaxResults    int     `json:"maxResults"`
	DurationMs    float64 `json:"durationMs"`
	Cached        bool    `json:"cached"`
}

// GenerateScheduleResponse carries the ranked schedules. An empty Schedules list means no
// combination fell inside the credit window.
type GenerateScheduleResponse struct {
	ResultID    string            `json:"resultId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Schedules   []models.Schedule `json:"schedules"`
	Excluded    []ExcludedCourse  `json:"excluded"`
	Stats       GenerationStats   `json:"stats"`
}

// ExportScheduleQuery selects which ranked schedule to render and how.
type ExportScheduleQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
	Rank   int    `form:"rank" validate:"omitempty,min=1,max=20"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ImportSectionsRequest lists the courses whose sections should be pulled from the catalog.
type ImportSectionsRequest struct {
	CourseIDs []string `json:"courseIds" validate:"required,min=1,max=500,dive,required,max=32"`
}

// SyncRatingsRequest optionally restricts the rating sync to named instructors.
type SyncRatingsRequest struct {
	Instructors []string `json:"instructors" validate:"omitempty,max=1000,dive,required"`
}

// JobAcceptedResponse acknowledges queued catalog work.
type JobAcceptedResponse struct {
	JobID  string `json:"jobId"`
	Type   string `json:"type"`
	Status string `json:"status"`
}
