package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func entry(id string, score float64, major bool, categories ...string) models.ScheduleEntry {
	return models.ScheduleEntry{
		Course:  models.Course{ID: id, Credits: 3, Categories: categories, IsMajorCourse: major},
		Section: scored(id, score),
	}
}

func TestRankerScoreSchedule(t *testing.T) {
	ranker := NewRanker(DefaultRankWeights())
	s := models.Schedule{Entries: []models.ScheduleEntry{
		entry("CMSC330", 0.8, true, "DSNS", "SCIS"),
		entry("CMSC351", 0.6, true, "SCIS", "SCIS"),
	}}

	assert.InDelta(t, 0.7, SectionAverage(s), 1e-9)
	assert.InDelta(t, 1.0, Diversity(s), 1e-9)
	assert.Equal(t, 2, MajorCount(s))
	assert.InDelta(t, 0.7*0.7+1.0*0.1+0.2, ranker.ScoreSchedule(s), 1e-9)
}

func TestRankerMajorBonusThreshold(t *testing.T) {
	ranker := NewRanker(DefaultRankWeights())
	single := models.Schedule{Entries: []models.ScheduleEntry{
		entry("CMSC330", 0.5, true),
		entry("HIST200", 0.5, false),
	}}
	assert.InDelta(t, 0.35, ranker.ScoreSchedule(single), 1e-9)

	strict := NewRanker(RankWeights{Section: 0.7, Diversity: 0.1, MajorBonus: 0.2, MajorThreshold: 3})
	double := models.Schedule{Entries: []models.ScheduleEntry{
		entry("CMSC330", 0.5, true),
		entry("CMSC351", 0.5, true),
	}}
	assert.InDelta(t, 0.35, strict.ScoreSchedule(double), 1e-9)
}

func TestRankerEmptySchedule(t *testing.T) {
	ranker := NewRanker(RankWeights{})
	assert.Equal(t, DefaultRankWeights(), ranker.Weights())
	assert.Equal(t, 0.0, ranker.ScoreSchedule(models.Schedule{}))
}

func TestRankerRankOrdersAndTruncates(t *testing.T) {
	ranker := NewRanker(DefaultRankWeights())
	input := []models.Schedule{
		{Entries: []models.ScheduleEntry{entry("low", 0.1, false)}},
		{Entries: []models.ScheduleEntry{entry("tie-a", 0.5, false)}},
		{Entries: []models.ScheduleEntry{entry("high", 0.9, false)}},
		{Entries: []models.ScheduleEntry{entry("tie-b", 0.5, false)}},
	}

	ranked := ranker.Rank(input, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"high"}, ranked[0].CourseIDs())
	assert.Equal(t, []string{"tie-a"}, ranked[1].CourseIDs(), "ties keep insertion order")
	assert.Equal(t, []string{"tie-b"}, ranked[2].CourseIDs())
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].TotalScore, ranked[i].TotalScore)
	}
	assert.Equal(t, 0.0, input[0].TotalScore, "input must not be mutated")
}

func TestRankerRankEmpty(t *testing.T) {
	ranked := NewRanker(DefaultRankWeights()).Rank(nil, 5)
	assert.Empty(t, ranked)
}
