package scheduler

import (
	"fmt"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func meeting(start, end int, days ...models.Weekday) models.Meeting {
	return models.Meeting{Days: models.NewWeekdaySet(days...), StartMinute: start, EndMinute: end}
}

func section(courseID string, meetings ...models.Meeting) models.Section {
	return models.Section{CourseID: courseID, SectionID: "0101", Meetings: meetings}
}

func scored(courseID string, score float64, meetings ...models.Meeting) models.ScoredSection {
	return models.ScoredSection{Section: section(courseID, meetings...), Score: score}
}

func course(id string, credits int, preference float64) models.Course {
	return models.Course{ID: id, Credits: credits, PreferenceScore: preference}
}

// compatiblePool builds n courses meeting on Monday at consecutive hours starting 8:00.
func compatiblePool(n, credits int) ([]models.Course, map[string]models.ScoredSection) {
	courses := make([]models.Course, 0, n)
	sections := make(map[string]models.ScoredSection, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("CMSC%d", 100+i)
		pref := 1 - float64(i)/float64(n)
		courses = append(courses, course(id, credits, pref))
		start := 8*60 + i*60
		sections[id] = scored(id, pref, meeting(start, start+50, models.Monday))
	}
	return courses, sections
}
