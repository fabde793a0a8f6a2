package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func TestHasConflictSameMeetingPattern(t *testing.T) {
	a := section("CMSC131", meeting(600, 650, models.Monday, models.Wednesday))
	b := section("MATH140", meeting(600, 650, models.Monday, models.Wednesday))

	assert.True(t, HasConflict(a, b))
}

func TestHasConflictBackToBackMeetings(t *testing.T) {
	x := section("CMSC131", meeting(9*60, 9*60+50, models.Monday))
	y := section("MATH140", meeting(9*60+50, 10*60+40, models.Monday))

	assert.False(t, HasConflict(x, y))
	assert.False(t, HasConflict(y, x))
}

func TestHasConflictHalfOpenBoundary(t *testing.T) {
	early := section("A", meeting(540, 600, models.Tuesday))
	late := section("B", meeting(600, 660, models.Tuesday))
	overlapping := section("C", meeting(599, 660, models.Tuesday))

	assert.False(t, HasConflict(early, late))
	assert.True(t, HasConflict(early, overlapping))
}

func TestHasConflictCases(t *testing.T) {
	malformed := models.Meeting{Malformed: true}
	cases := []struct {
		name string
		a, b models.Section
		want bool
	}{
		{"different days", section("A", meeting(600, 650, models.Monday)), section("B", meeting(600, 650, models.Tuesday)), false},
		{"partial overlap", section("A", meeting(600, 675, models.Thursday)), section("B", meeting(660, 720, models.Thursday)), true},
		{"containment", section("A", meeting(480, 720, models.Friday)), section("B", meeting(540, 560, models.Friday)), true},
		{"async never conflicts", section("A", meeting(600, 650)), section("B", meeting(600, 650, models.Monday)), false},
		{"malformed never conflicts", section("A", malformed), section("B", meeting(0, 1439, models.Monday, models.Friday)), false},
		{"second meeting clashes", section("A", meeting(480, 530, models.Monday), meeting(780, 830, models.Wednesday)), section("B", meeting(800, 850, models.Wednesday)), true},
		{"no meetings", section("A"), section("B", meeting(600, 650, models.Monday)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasConflict(tc.a, tc.b))
			assert.Equal(t, tc.want, HasConflict(tc.b, tc.a), "conflict detection must be symmetric")
		})
	}
}

func TestHasAnyConflict(t *testing.T) {
	a := section("A", meeting(480, 530, models.Monday))
	b := section("B", meeting(540, 590, models.Monday))
	c := section("C", meeting(500, 560, models.Monday))

	assert.False(t, HasAnyConflict(nil))
	assert.False(t, HasAnyConflict([]models.Section{a}))
	assert.False(t, HasAnyConflict([]models.Section{a, b}))
	assert.True(t, HasAnyConflict([]models.Section{a, b, c}))
}
