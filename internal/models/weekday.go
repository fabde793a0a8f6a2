package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday identifies a teaching day. Weekends are not scheduled.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var weekdayNames = [...]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}

var weekdayCodes = [...]string{"M", "Tu", "W", "Th", "F"}

// String returns the upper-case day name.
func (d Weekday) String() string {
	if int(d) < len(weekdayNames) {
		return weekdayNames[d]
	}
	return fmt.Sprintf("WEEKDAY(%d)", d)
}

// WeekdayFromName resolves a day name such as "MONDAY" or "mon".
func WeekdayFromName(name string) (Weekday, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	for i, full := range weekdayNames {
		if name == full || (len(name) >= 3 && strings.HasPrefix(full, name)) {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdaySet is a bitset of weekdays. The zero value is the empty set and marks an
// asynchronous meeting.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of the set including d.
func (s WeekdaySet) With(d Weekday) WeekdaySet {
	if int(d) >= len(weekdayNames) {
		return s
	}
	return s | 1<<d
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d Weekday) bool {
	return s&(1<<d) != 0
}

// Empty reports whether no day is set.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Intersects reports whether both sets share at least one day.
func (s WeekdaySet) Intersects(other WeekdaySet) bool {
	return s&other != 0
}

// Days lists the members in calendar order.
func (s WeekdaySet) Days() []Weekday {
	days := make([]Weekday, 0, len(weekdayNames))
	for i := range weekdayNames {
		if s.Has(Weekday(i)) {
			days = append(days, Weekday(i))
		}
	}
	return days
}

// String renders the compact catalog form, e.g. "MWF" or "TuTh".
func (s WeekdaySet) String() string {
	var b strings.Builder
	for _, d := range s.Days() {
		b.WriteString(weekdayCodes[d])
	}
	return b.String()
}

// MarshalJSON encodes the set as a list of day names.
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts a list of day names.
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("weekdays must be a list of day names: %w", err)
	}
	var set WeekdaySet
	for _, name := range names {
		d, ok := WeekdayFromName(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		set = set.With(d)
	}
	*s = set
	return nil
}
