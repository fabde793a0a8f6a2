// Package csvio reads offline course pools, section catalogs and instructor ratings.
package csvio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
)

// listSeparator splits multi-valued cells such as instructors or categories.
const listSeparator = "|"

type courseRow struct {
	ID               string  `csv:"id"`
	Title            string  `csv:"title"`
	Credits          int     `csv:"credits"`
	Categories       string  `csv:"categories"`
	PreferenceScore  float64 `csv:"preference_score"`
	IsMajorCourse    bool    `csv:"is_major"`
	PrerequisitesMet string  `csv:"prerequisites_met"`
}

// sectionRow is one meeting of a section; a section spans as many rows as it has meetings.
type sectionRow struct {
	CourseID    string `csv:"course_id"`
	SectionID   string `csv:"section_id"`
	Seats       int    `csv:"seats"`
	OpenSeats   int    `csv:"open_seats"`
	Waitlist    int    `csv:"waitlist"`
	Instructors string `csv:"instructors"`
	Days        string `csv:"days"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	Building    string `csv:"building"`
	Room        string `csv:"room"`
	ClassType   string `csv:"class_type"`
}

type ratingRow struct {
	Name          string  `csv:"name"`
	AverageRating float64 `csv:"average_rating"`
	ReviewCount   int     `csv:"review_count"`
}

// LoadCourses parses a course pool.
func LoadCourses(r io.Reader) ([]dto.CourseInput, error) {
	rows := []*courseRow{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse courses: %w", err)
	}

	courses := make([]dto.CourseInput, 0, len(rows))
	for i, row := range rows {
		course := dto.CourseInput{
			ID:              strings.TrimSpace(row.ID),
			Title:           strings.TrimSpace(row.Title),
			Credits:         row.Credits,
			Categories:      splitList(row.Categories),
			PreferenceScore: row.PreferenceScore,
			IsMajorCourse:   row.IsMajorCourse,
		}
		if raw := strings.TrimSpace(row.PrerequisitesMet); raw != "" {
			met, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("courses row %d: prerequisites_met %q: %w", i+2, raw, err)
			}
			course.PrerequisitesMet = &met
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// LoadSections parses a section catalog, folding consecutive meeting rows into one record per section.
func LoadSections(r io.Reader) ([]models.SectionRecord, error) {
	rows := []*sectionRow{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}

	type pending struct {
		record   models.SectionRecord
		meetings []models.RawMeeting
	}
	order := []string{}
	byKey := map[string]*pending{}
	for _, row := range rows {
		courseID := strings.ToUpper(strings.TrimSpace(row.CourseID))
		sectionID := strings.TrimSpace(row.SectionID)
		key := courseID + "/" + sectionID
		entry, ok := byKey[key]
		if !ok {
			entry = &pending{record: models.SectionRecord{
				ID:          key,
				CourseID:    courseID,
				SectionID:   sectionID,
				Seats:       row.Seats,
				OpenSeats:   row.OpenSeats,
				Waitlist:    row.Waitlist,
				Instructors: splitList(row.Instructors),
			}}
			byKey[key] = entry
			order = append(order, key)
		}
		if row.Days == "" && row.StartTime == "" && row.EndTime == "" && row.Building == "" && row.Room == "" {
			continue
		}
		entry.meetings = append(entry.meetings, models.RawMeeting{
			Days:      strings.TrimSpace(row.Days),
			StartTime: strings.TrimSpace(row.StartTime),
			EndTime:   strings.TrimSpace(row.EndTime),
			Building:  strings.TrimSpace(row.Building),
			Room:      strings.TrimSpace(row.Room),
			ClassType: strings.TrimSpace(row.ClassType),
		})
	}

	records := make([]models.SectionRecord, 0, len(order))
	for _, key := range order {
		entry := byKey[key]
		meetings := entry.meetings
		if meetings == nil {
			meetings = []models.RawMeeting{}
		}
		payload, err := json.Marshal(meetings)
		if err != nil {
			return nil, fmt.Errorf("encode meetings for %s: %w", key, err)
		}
		entry.record.Meetings = payload
		records = append(records, entry.record)
	}
	return records, nil
}

// LoadRatings parses instructor ratings.
func LoadRatings(r io.Reader) ([]models.InstructorRating, error) {
	rows := []*ratingRow{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse ratings: %w", err)
	}
	return lo.FilterMap(rows, func(row *ratingRow, _ int) (models.InstructorRating, bool) {
		name := strings.TrimSpace(row.Name)
		return models.InstructorRating{Name: name, AverageRating: row.AverageRating, ReviewCount: row.ReviewCount}, name != ""
	}), nil
}

// LoadFile opens path and hands it to load.
func LoadFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()
	return load(file)
}

func splitList(raw string) []string {
	parts := lo.Map(strings.Split(raw, listSeparator), func(part string, _ int) string { return strings.TrimSpace(part) })
	return lo.Compact(parts)
}
