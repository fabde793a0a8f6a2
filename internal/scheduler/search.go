package scheduler

import (
	"sort"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// Strategy selects the enumeration algorithm. Both produce the same set of schedules
// when the search is not truncated.
type Strategy string

const (
	// StrategyBuckets extends partial schedules grouped by exact credit total.
	StrategyBuckets Strategy = "dp"
	// StrategyBacktrack walks include/exclude decisions depth first.
	StrategyBacktrack Strategy = "dfs"
)

// Search bounds applied by WithDefaults when a field is unset.
const (
	// DefaultTolerance is the credit window around the target, in either direction.
	DefaultTolerance = 3
	// DefaultMaxResults is the number of ranked schedules returned.
	DefaultMaxResults = 5
	// DefaultWorkMultiplier scales MaxResults into the candidate budget collected before ranking.
	DefaultWorkMultiplier = 10
	// DefaultMaxStates caps the partial schedules a search may hold.
	DefaultMaxStates = 50000
)

// SearchOptions bounds a search. A negative Tolerance selects the default; zero is a
// valid exact-match window.
type SearchOptions struct {
	TargetCredits  int
	Tolerance      int
	MaxResults     int
	WorkMultiplier int
	MaxStates      int
	Strategy       Strategy
}

// WithDefaults fills unset fields.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Tolerance < 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.WorkMultiplier <= 0 {
		o.WorkMultiplier = DefaultWorkMultiplier
	}
	if o.MaxStates <= 0 {
		o.MaxStates = DefaultMaxStates
	}
	if o.Strategy != StrategyBacktrack {
		o.Strategy = StrategyBuckets
	}
	return o
}

// CreditWindow returns the inclusive credit bounds for eligible schedules.
func (o SearchOptions) CreditWindow() (int, int) {
	lower := o.TargetCredits - o.Tolerance
	if lower < 0 {
		lower = 0
	}
	return lower, o.TargetCredits + o.Tolerance
}

func (o SearchOptions) candidateLimit() int {
	return o.MaxResults * o.WorkMultiplier
}

// SearchStats describes the work a search performed.
type SearchStats struct {
	Courses    int  `json:"courses"`
	States     int  `json:"states"`
	Candidates int  `json:"candidates"`
	Truncated  bool `json:"truncated"`
}

type poolCourse struct {
	course  models.Course
	section models.ScoredSection
}

// partial is never mutated once built; extend copies the entries.
type partial struct {
	entries []models.ScheduleEntry
	credits int
}

func (p partial) extend(c poolCourse) partial {
	entries := make([]models.ScheduleEntry, len(p.entries), len(p.entries)+1)
	copy(entries, p.entries)
	entries = append(entries, models.ScheduleEntry{Course: c.course, Section: c.section})
	return partial{entries: entries, credits: p.credits + c.course.Credits}
}

func (p partial) fits(c poolCourse) bool {
	return !conflictsWithEntries(p.entries, c.section.Section)
}

func (p partial) schedule() models.Schedule {
	return models.Schedule{Entries: p.entries, TotalCredits: p.credits}
}

// Search enumerates conflict-free course combinations whose credit total falls inside the
// credit window. Each course contributes its representative section from sections; courses
// without one are skipped. Once the candidate count reaches MaxResults*WorkMultiplier, or the
// number of partial schedules reaches MaxStates, the search stops and returns what it found.
// Results are unranked, in discovery order.
func Search(courses []models.Course, sections map[string]models.ScoredSection, opts SearchOptions) ([]models.Schedule, SearchStats) {
	opts = opts.WithDefaults()
	pool := preparePool(courses, sections, opts)

	var found []partial
	var stats SearchStats
	switch opts.Strategy {
	case StrategyBacktrack:
		found, stats = searchBacktrack(pool, opts)
	default:
		found, stats = searchBuckets(pool, opts)
	}
	stats.Courses = len(pool)

	schedules := make([]models.Schedule, 0, len(found))
	for _, p := range found {
		schedules = append(schedules, p.schedule())
	}
	return schedules, stats
}

// preparePool drops courses without a section, repeated ids, negative credits and courses
// that alone exceed the window, then orders the rest by descending preference so the most
// wanted combinations are found before any truncation.
func preparePool(courses []models.Course, sections map[string]models.ScoredSection, opts SearchOptions) []poolCourse {
	_, upper := opts.CreditWindow()
	seen := make(map[string]struct{}, len(courses))
	pool := make([]poolCourse, 0, len(courses))
	for _, course := range courses {
		if _, dup := seen[course.ID]; dup {
			continue
		}
		seen[course.ID] = struct{}{}
		section, ok := sections[course.ID]
		if !ok || course.Credits < 0 || course.Credits > upper {
			continue
		}
		pool = append(pool, poolCourse{course: course, section: section})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].course.PreferenceScore > pool[j].course.PreferenceScore
	})
	return pool
}

func searchBuckets(pool []poolCourse, opts SearchOptions) ([]partial, SearchStats) {
	lower, upper := opts.CreditWindow()
	limit := opts.candidateLimit()
	stats := SearchStats{States: 1}

	buckets := make([][]partial, upper+1)
	buckets[0] = []partial{{}}
	sizes := make([]int, upper+1)

extend:
	for _, c := range pool {
		credits := c.course.Credits
		// Only entries present before this course are extended, so a course is never
		// added twice even when it carries zero credits.
		for i := range buckets {
			sizes[i] = len(buckets[i])
		}
		for total := upper; total >= credits; total-- {
			from := total - credits
			for _, p := range buckets[from][:sizes[from]] {
				if !p.fits(c) {
					continue
				}
				buckets[total] = append(buckets[total], p.extend(c))
				stats.States++
				if total >= lower {
					stats.Candidates++
				}
				if stats.Candidates >= limit || stats.States >= opts.MaxStates {
					stats.Truncated = true
					break extend
				}
			}
		}
	}

	var found []partial
	for total := lower; total <= upper; total++ {
		for _, p := range buckets[total] {
			if len(p.entries) > 0 {
				found = append(found, p)
			}
		}
	}
	return found, stats
}

func searchBacktrack(pool []poolCourse, opts SearchOptions) ([]partial, SearchStats) {
	lower, upper := opts.CreditWindow()
	limit := opts.candidateLimit()
	stats := SearchStats{States: 1}
	var found []partial

	// walk includes pool[i] and recurses past it; moving the cursor on is the exclude branch.
	var walk func(cursor int, p partial) bool
	walk = func(cursor int, p partial) bool {
		for i := cursor; i < len(pool); i++ {
			c := pool[i]
			if p.credits+c.course.Credits > upper || !p.fits(c) {
				continue
			}
			next := p.extend(c)
			stats.States++
			if next.credits >= lower {
				found = append(found, next)
				stats.Candidates++
			}
			if stats.Candidates >= limit || stats.States >= opts.MaxStates {
				return false
			}
			if !walk(i+1, next) {
				return false
			}
		}
		return true
	}
	stats.Truncated = !walk(0, partial{})
	return found, stats
}
