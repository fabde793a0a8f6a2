package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Course is a catalog entry under consideration for one generation request.
type Course struct {
	ID              string   `json:"id"`
	Title           string   `json:"title,omitempty"`
	Credits         int      `json:"credits"`
	Categories      []string `json:"categories,omitempty"`
	PreferenceScore float64  `json:"preferenceScore"`
	IsMajorCourse   bool     `json:"isMajorCourse"`
}

// Meeting is one recurring weekly time block, minutes measured from midnight.
type Meeting struct {
	Days        WeekdaySet `json:"days"`
	StartMinute int        `json:"startMinute"`
	EndMinute   int        `json:"endMinute"`
	Building    string     `json:"building,omitempty"`
	Room        string     `json:"room,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	Malformed   bool       `json:"malformed,omitempty"`
}

// Async reports whether the meeting has no weekday and therefore never conflicts.
func (m Meeting) Async() bool {
	return m.Days.Empty()
}

// Section is one offering of a course.
type Section struct {
	CourseID    string    `json:"courseId"`
	SectionID   string    `json:"sectionId"`
	Meetings    []Meeting `json:"meetings"`
	Instructors []string  `json:"instructors"`
	OpenSeats   int       `json:"openSeats"`
}

// InstructorLabel joins instructor names, or "TBA" when none are assigned.
func (s Section) InstructorLabel() string {
	if len(s.Instructors) == 0 {
		return "TBA"
	}
	return strings.Join(s.Instructors, ", ")
}

// ScoredSection annotates a section with its quality signals.
type ScoredSection struct {
	Section
	InstructorQuality float64 `json:"instructorQuality"`
	Score             float64 `json:"score"`
}

// ScheduleEntry pairs a course with the section chosen for it.
type ScheduleEntry struct {
	Course  Course        `json:"course"`
	Section ScoredSection `json:"section"`
}

// Schedule is one conflict-free combination of course sections.
type Schedule struct {
	Entries      []ScheduleEntry `json:"entries"`
	TotalCredits int             `json:"totalCredits"`
	TotalScore   float64         `json:"totalScore"`
}

// Sections returns the sections in entry order.
func (s Schedule) Sections() []Section {
	out := make([]Section, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Section.Section
	}
	return out
}

// CourseIDs returns the course identifiers in entry order.
func (s Schedule) CourseIDs() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Course.ID
	}
	return out
}

// RawMeeting is a meeting as published by the course catalog.
type RawMeeting struct {
	Days      string `json:"days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Building  string `json:"building"`
	Room      string `json:"room"`
	ClassType string `json:"classtype"`
}

// SectionRecord is the stored form of a catalog section.
type SectionRecord struct {
	ID          string         `db:"id" json:"id"`
	CourseID    string         `db:"course_id" json:"course_id"`
	SectionID   string         `db:"section_id" json:"section_id"`
	Seats       int            `db:"seats" json:"seats"`
	OpenSeats   int            `db:"open_seats" json:"open_seats"`
	Waitlist    int            `db:"waitlist" json:"waitlist"`
	Instructors pq.StringArray `db:"instructors" json:"instructors"`
	Meetings    types.JSONText `db:"meetings" json:"meetings"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// RawMeetings decodes the stored meeting payload.
func (r SectionRecord) RawMeetings() ([]RawMeeting, error) {
	if len(r.Meetings) == 0 {
		return nil, nil
	}
	var meetings []RawMeeting
	if err := json.Unmarshal(r.Meetings, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// InstructorRating is the aggregated review score for an instructor.
type InstructorRating struct {
	Name          string    `db:"name" json:"name"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
	ReviewCount   int       `db:"review_count" json:"review_count"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
