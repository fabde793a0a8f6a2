package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// MinutesPerDay bounds meeting times.
const MinutesPerDay = 24 * 60

// ErrMalformedMeeting marks catalog meetings whose days or times cannot be read.
var ErrMalformedMeeting = errors.New("malformed meeting")

var asyncDayMarkers = map[string]struct{}{
	"":       {},
	"TBA":    {},
	"ONLINE": {},
	"ASYNC":  {},
}

// ParseMeeting converts a catalog meeting into minutes since midnight. A meeting that
// cannot be read is returned with no days and Malformed set, alongside an error wrapping
// ErrMalformedMeeting, so it never takes part in conflict checks.
func ParseMeeting(raw models.RawMeeting) (models.Meeting, error) {
	meeting := models.Meeting{
		Building: strings.TrimSpace(raw.Building),
		Room:     strings.TrimSpace(raw.Room),
		Kind:     strings.TrimSpace(raw.ClassType),
	}

	days, err := ParseWeekdays(raw.Days)
	if err != nil {
		return malformed(meeting), err
	}
	if days.Empty() {
		// Online sections often omit times altogether; keep them when present.
		if start, err := ParseClock(raw.StartTime); err == nil {
			if end, err := ParseClock(raw.EndTime); err == nil && start < end {
				meeting.StartMinute, meeting.EndMinute = start, end
			}
		}
		return meeting, nil
	}

	start, err := ParseClock(raw.StartTime)
	if err != nil {
		return malformed(meeting), err
	}
	end, err := ParseClock(raw.EndTime)
	if err != nil {
		return malformed(meeting), err
	}
	if start >= end {
		return malformed(meeting), fmt.Errorf("%w: start %q is not before end %q", ErrMalformedMeeting, raw.StartTime, raw.EndTime)
	}

	meeting.Days = days
	meeting.StartMinute = start
	meeting.EndMinute = end
	return meeting, nil
}

func malformed(m models.Meeting) models.Meeting {
	m.Days = 0
	m.StartMinute, m.EndMinute = 0, 0
	m.Malformed = true
	return m
}

// ParseWeekdays reads compact day strings such as "MWF", "TuTh" or "TR". Empty input and
// markers like "TBA" yield the empty set.
func ParseWeekdays(raw string) (models.WeekdaySet, error) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := asyncDayMarkers[strings.ToUpper(trimmed)]; ok {
		return 0, nil
	}

	var set models.WeekdaySet
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch c {
		case ' ', ',', '/', '-':
			continue
		case 'M', 'm':
			set = set.With(models.Monday)
		case 'W', 'w':
			set = set.With(models.Wednesday)
		case 'F', 'f':
			set = set.With(models.Friday)
		case 'R', 'r':
			set = set.With(models.Thursday)
		case 'T', 't':
			if i+1 < len(trimmed) && (trimmed[i+1] == 'h' || trimmed[i+1] == 'H') {
				set = set.With(models.Thursday)
				i++
				continue
			}
			if i+1 < len(trimmed) && (trimmed[i+1] == 'u' || trimmed[i+1] == 'U') {
				i++
			}
			set = set.With(models.Tuesday)
		default:
			return 0, fmt.Errorf("%w: unknown day code %q in %q", ErrMalformedMeeting, c, raw)
		}
	}
	return set, nil
}

// ParseClock converts "9:30am", "9:30 PM", "13:05" or "9am" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return 0, fmt.Errorf("%w: empty time", ErrMalformedMeeting)
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(value, "am"):
		meridiem = "am"
	case strings.HasSuffix(value, "pm"):
		meridiem = "pm"
	}
	value = strings.TrimSpace(strings.TrimSuffix(value, meridiem))

	hourPart, minutePart := value, "0"
	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		hourPart, minutePart = value[:idx], value[idx+1:]
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrMalformedMeeting, raw)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrMalformedMeeting, raw)
	}

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("%w: hour out of range in %q", ErrMalformedMeeting, raw)
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("%w: hour out of range in %q", ErrMalformedMeeting, raw)
		}
	}

	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "15:04".
func FormatClock(minute int) string {
	if minute < 0 || minute >= MinutesPerDay {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
