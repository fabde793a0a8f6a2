package scheduler

import (
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const (
	// DefaultSectionWeight is the share of a schedule score driven by its average section score.
	DefaultSectionWeight = 0.7
	// DefaultDiversityWeight is the share driven by category diversity.
	DefaultDiversityWeight = 0.1
	// DefaultMajorBonus is added once a schedule holds DefaultMajorThreshold major courses.
	DefaultMajorBonus = 0.2
	// DefaultMajorThreshold is the major course count that earns the bonus.
	DefaultMajorThreshold = 2
)

// RankWeights tunes the composite schedule score.
type RankWeights struct {
	Section        float64
	Diversity      float64
	MajorBonus     float64
	MajorThreshold int
}

// DefaultRankWeights returns the stock ranking weights.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Section:        DefaultSectionWeight,
		Diversity:      DefaultDiversityWeight,
		MajorBonus:     DefaultMajorBonus,
		MajorThreshold: DefaultMajorThreshold,
	}
}

// Ranker scores candidate schedules and keeps the best.
type Ranker struct {
	weights RankWeights
}

// NewRanker builds a ranker. The zero RankWeights selects the defaults and a non-positive
// threshold falls back to DefaultMajorThreshold.
func NewRanker(w RankWeights) *Ranker {
	if w == (RankWeights{}) {
		w = DefaultRankWeights()
	}
	if w.MajorThreshold <= 0 {
		w.MajorThreshold = DefaultMajorThreshold
	}
	return &Ranker{weights: w}
}

// Weights returns the weights in use.
func (r *Ranker) Weights() RankWeights {
	return r.weights
}

// ScoreSchedule computes sectionAvg*W_section + diversity*W_diversity + majorBonus.
func (r *Ranker) ScoreSchedule(s models.Schedule) float64 {
	bonus := 0.0
	if MajorCount(s) >= r.weights.MajorThreshold {
		bonus = r.weights.MajorBonus
	}
	return SectionAverage(s)*r.weights.Section + Diversity(s)*r.weights.Diversity + bonus
}

// Rank scores every schedule, orders them by score descending and keeps at most maxResults.
// Equal scores keep their input order. The input slice is left untouched.
func (r *Ranker) Rank(schedules []models.Schedule, maxResults int) []models.Schedule {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	ranked := make([]models.Schedule, len(schedules))
	for i, s := range schedules {
		s.TotalScore = r.ScoreSchedule(s)
		ranked[i] = s
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

// SectionAverage is the mean representative-section score, 0 for an empty schedule.
func SectionAverage(s models.Schedule) float64 {
	if len(s.Entries) == 0 {
		return 0
	}
	total := lo.SumBy(s.Entries, func(e models.ScheduleEntry) float64 {
		return e.Section.Score
	})
	return total / float64(len(s.Entries))
}

// Diversity is the number of distinct categories over the number of entries.
func Diversity(s models.Schedule) float64 {
	if len(s.Entries) == 0 {
		return 0
	}
	categories := lo.Uniq(lo.FlatMap(s.Entries, func(e models.ScheduleEntry, _ int) []string {
		return e.Course.Categories
	}))
	return float64(len(categories)) / float64(len(s.Entries))
}

// MajorCount counts entries flagged as major courses.
func MajorCount(s models.Schedule) int {
	return lo.CountBy(s.Entries, func(e models.ScheduleEntry) bool {
		return e.Course.IsMajorCourse
	})
}
