package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const (
	// DefaultInstructorWeight is the share of a section score driven by instructor quality.
	DefaultInstructorWeight = 0.4
	// DefaultPreferenceWeight is the share driven by the course preference signal.
	DefaultPreferenceWeight = 0.6
	// MaxInstructorQuality is the top of the instructor rating scale.
	MaxInstructorQuality = 5.0

	weightSumEpsilon = 1e-9
)

// ScoreWeights tunes the section score formula. Weights must sum to 1.
type ScoreWeights struct {
	Instructor float64
	Preference float64
}

// DefaultScoreWeights returns the stock weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Instructor: DefaultInstructorWeight, Preference: DefaultPreferenceWeight}
}

// Validate checks that both weights are non-negative and sum to 1.
func (w ScoreWeights) Validate() error {
	if w.Instructor < 0 || w.Preference < 0 {
		return fmt.Errorf("score weights must be non-negative (instructor=%v preference=%v)", w.Instructor, w.Preference)
	}
	if math.Abs(w.Instructor+w.Preference-1) > weightSumEpsilon {
		return fmt.Errorf("score weights must sum to 1, got %v", w.Instructor+w.Preference)
	}
	return nil
}

// Scorer combines instructor quality and course preference into a per-section score.
type Scorer struct {
	weights ScoreWeights
}

// NewScorer builds a scorer, falling back to the default weights when w is invalid.
func NewScorer(w ScoreWeights) *Scorer {
	if w.Validate() != nil {
		w = DefaultScoreWeights()
	}
	return &Scorer{weights: w}
}

// Weights returns the weights in use.
func (s *Scorer) Weights() ScoreWeights {
	return s.weights
}

// Score returns (quality/5)*W_instructor + preference*W_preference. Quality is clamped to
// [0,5] and preference to [0,1]; the section itself does not influence the formula.
func (s *Scorer) Score(_ models.Section, instructorQuality, coursePreference float64) float64 {
	quality := clamp(instructorQuality, 0, MaxInstructorQuality)
	preference := clamp(coursePreference, 0, 1)
	return (quality/MaxInstructorQuality)*s.weights.Instructor + preference*s.weights.Preference
}

// ScoreSections scores each section of a course and returns them best first. Sections with
// equal scores keep their input order.
func (s *Scorer) ScoreSections(sections []models.Section, quality func(models.Section) float64, coursePreference float64) []models.ScoredSection {
	scored := make([]models.ScoredSection, 0, len(sections))
	for _, section := range sections {
		q := 0.0
		if quality != nil {
			q = quality(section)
		}
		scored = append(scored, models.ScoredSection{
			Section:           section,
			InstructorQuality: q,
			Score:             s.Score(section, q, coursePreference),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// InstructorQuality averages the known ratings of a section's instructors. Unknown
// instructors (rating 0) are ignored; with no known rating the result is 0.
func InstructorQuality(instructors []string, rating func(name string) float64) float64 {
	if rating == nil {
		return 0
	}
	var sum float64
	var count int
	for _, name := range instructors {
		r := rating(name)
		if r > 0 {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// BestSection returns the highest scored section. The first one wins a tie.
func BestSection(sections []models.ScoredSection) (models.ScoredSection, bool) {
	if len(sections) == 0 {
		return models.ScoredSection{}, false
	}
	best := sections[0]
	for _, candidate := range sections[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
