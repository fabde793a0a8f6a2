package scheduler

import "github.com/noah-isme/course-planner-api/internal/models"

// MeetingsOverlap reports whether two meetings share a weekday and their half-open
// [start, end) intervals intersect. A meeting ending when the other starts does not overlap.
func MeetingsOverlap(a, b models.Meeting) bool {
	if a.Async() || b.Async() {
		return false
	}
	if !a.Days.Intersects(b.Days) {
		return false
	}
	return a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
}

// HasConflict compares every meeting of a against every meeting of b and stops at the
// first overlapping pair.
func HasConflict(a, b models.Section) bool {
	for _, m1 := range a.Meetings {
		for _, m2 := range b.Meetings {
			if MeetingsOverlap(m1, m2) {
				return true
			}
		}
	}
	return false
}

// HasAnyConflict reports whether any unordered pair of sections conflicts.
func HasAnyConflict(sections []models.Section) bool {
	for i := 0; i < len(sections); i++ {
		for j := i + 1; j < len(sections); j++ {
			if HasConflict(sections[i], sections[j]) {
				return true
			}
		}
	}
	return false
}

func conflictsWithEntries(entries []models.ScheduleEntry, candidate models.Section) bool {
	for _, entry := range entries {
		if HasConflict(entry.Section.Section, candidate) {
			return true
		}
	}
	return false
}
