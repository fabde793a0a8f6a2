package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func TestScorerScore(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights())
	s := section("CMSC330")

	assert.InDelta(t, 0.4*0.8+0.6*0.5, scorer.Score(s, 4.0, 0.5), 1e-9)
	assert.InDelta(t, 0.6, scorer.Score(s, 0, 1), 1e-9)
	assert.InDelta(t, 1.0, scorer.Score(s, 7, 3), 1e-9, "inputs are clamped")
	assert.InDelta(t, 0.0, scorer.Score(s, -1, -1), 1e-9)
}

func TestScoreWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultScoreWeights().Validate())
	require.NoError(t, ScoreWeights{Instructor: 0.25, Preference: 0.75}.Validate())
	assert.Error(t, ScoreWeights{Instructor: 0.5, Preference: 0.6}.Validate())
	assert.Error(t, ScoreWeights{Instructor: -0.2, Preference: 1.2}.Validate())
}

func TestNewScorerFallsBackOnInvalidWeights(t *testing.T) {
	scorer := NewScorer(ScoreWeights{Instructor: 1, Preference: 1})
	assert.Equal(t, DefaultScoreWeights(), scorer.Weights())

	custom := NewScorer(ScoreWeights{Instructor: 0.5, Preference: 0.5})
	assert.Equal(t, 0.5, custom.Weights().Instructor)
}

func TestInstructorQuality(t *testing.T) {
	ratings := map[string]float64{"Nelson": 4.0, "Mount": 3.0}
	lookup := func(name string) float64 { return ratings[name] }

	assert.InDelta(t, 3.5, InstructorQuality([]string{"Nelson", "Mount", "Unknown"}, lookup), 1e-9)
	assert.Equal(t, 0.0, InstructorQuality([]string{"Unknown"}, lookup))
	assert.Equal(t, 0.0, InstructorQuality(nil, lookup))
	assert.Equal(t, 0.0, InstructorQuality([]string{"Nelson"}, nil))
}

func TestScoreSectionsOrdersBestFirst(t *testing.T) {
	scorer := NewScorer(DefaultScoreWeights())
	sections := []models.Section{
		{CourseID: "CMSC216", SectionID: "0101", Instructors: []string{"Weak"}},
		{CourseID: "CMSC216", SectionID: "0201", Instructors: []string{"Strong"}},
		{CourseID: "CMSC216", SectionID: "0301"},
	}
	quality := func(s models.Section) float64 {
		return InstructorQuality(s.Instructors, func(name string) float64 {
			return map[string]float64{"Weak": 2, "Strong": 5}[name]
		})
	}

	scoredSections := scorer.ScoreSections(sections, quality, 0.5)
	require.Len(t, scoredSections, 3)
	assert.Equal(t, "0201", scoredSections[0].SectionID)
	assert.Equal(t, 5.0, scoredSections[0].InstructorQuality)
	assert.Equal(t, "0301", scoredSections[2].SectionID)

	best, ok := BestSection(scoredSections)
	require.True(t, ok)
	assert.Equal(t, "0201", best.SectionID)
}

func TestBestSectionTieKeepsFirst(t *testing.T) {
	first := scored("A", 0.5)
	first.SectionID = "first"
	second := scored("A", 0.5)
	second.SectionID = "second"

	best, ok := BestSection([]models.ScoredSection{first, second})
	require.True(t, ok)
	assert.Equal(t, "first", best.SectionID)

	_, ok = BestSection(nil)
	assert.False(t, ok)
}
