package scheduler

import (
	"sort"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/noah-isme/course-planner-api/internal/models"
)

var strategies = []Strategy{StrategyBuckets, StrategyBacktrack}

func scheduleKey(s models.Schedule) string {
	ids := s.CourseIDs()
	sort.Strings(ids)
	return strings.Join(ids, "+")
}

func TestSearchExactCreditTarget(t *testing.T) {
	g := NewWithT(t)
	courses := []models.Course{course("CMSC131", 3, 0.9), course("MATH140", 4, 0.8), course("ENGL101", 3, 0.7)}
	sections := map[string]models.ScoredSection{
		"CMSC131": scored("CMSC131", 0.8, meeting(600, 650, models.Monday, models.Wednesday)),
		"MATH140": scored("MATH140", 0.7, meeting(660, 710, models.Monday, models.Wednesday)),
		"ENGL101": scored("ENGL101", 0.6, meeting(600, 675, models.Tuesday, models.Thursday)),
	}

	for _, strategy := range strategies {
		engine := NewEngine(DefaultScoreWeights(), DefaultRankWeights())
		ranked, _ := engine.Plan(courses, sections, SearchOptions{TargetCredits: 10, Tolerance: 0, Strategy: strategy})

		g.Expect(ranked).To(HaveLen(1), string(strategy))
		g.Expect(ranked[0].TotalCredits).To(Equal(10))
		g.Expect(scheduleKey(ranked[0])).To(Equal("CMSC131+ENGL101+MATH140"))
	}
}

func TestSearchNothingInWindow(t *testing.T) {
	g := NewWithT(t)
	courses := []models.Course{course("A", 3, 0.5), course("B", 3, 0.5)}
	sections := map[string]models.ScoredSection{
		"A": scored("A", 0.5, meeting(600, 650, models.Monday)),
		"B": scored("B", 0.5, meeting(700, 750, models.Monday)),
	}

	for _, strategy := range strategies {
		found, stats := Search(courses, sections, SearchOptions{TargetCredits: 15, Tolerance: 2, Strategy: strategy})
		g.Expect(found).To(BeEmpty())
		g.Expect(stats.Truncated).To(BeFalse())
	}
}

func TestSearchCompatiblePoolIsCapped(t *testing.T) {
	g := NewWithT(t)
	courses, sections := compatiblePool(8, 3)
	engine := NewEngine(DefaultScoreWeights(), DefaultRankWeights())

	for _, strategy := range strategies {
		ranked, stats := engine.Plan(courses, sections, SearchOptions{TargetCredits: 9, Tolerance: 3, MaxResults: 5, Strategy: strategy})

		g.Expect(ranked).To(HaveLen(5))
		g.Expect(stats.Truncated).To(BeTrue())
		g.Expect(stats.Candidates).To(Equal(50))
		for i, s := range ranked {
			g.Expect(s.TotalCredits).To(BeNumerically(">=", 6))
			g.Expect(s.TotalCredits).To(BeNumerically("<=", 12))
			if i > 0 {
				g.Expect(ranked[i-1].TotalScore).To(BeNumerically(">=", s.TotalScore))
			}
		}
	}
}

func TestSearchSkipsConflictsAndRepeats(t *testing.T) {
	g := NewWithT(t)
	courses := []models.Course{
		course("CMSC330", 3, 0.9),
		course("CMSC351", 3, 0.8),
		course("CMSC330", 3, 0.9),
		course("STAT400", 3, 0.7),
		course("NOSECT", 3, 1.0),
	}
	sections := map[string]models.ScoredSection{
		"CMSC330": scored("CMSC330", 0.9, meeting(600, 675, models.Tuesday, models.Thursday)),
		"CMSC351": scored("CMSC351", 0.8, meeting(630, 705, models.Tuesday)),
		"STAT400": scored("STAT400", 0.7, meeting(600, 650, models.Monday)),
	}

	for _, strategy := range strategies {
		found, stats := Search(courses, sections, SearchOptions{TargetCredits: 6, Tolerance: 0, Strategy: strategy})
		g.Expect(stats.Courses).To(Equal(3))

		keys := make([]string, 0, len(found))
		for _, s := range found {
			g.Expect(HasAnyConflict(s.Sections())).To(BeFalse())
			seen := map[string]bool{}
			for _, id := range s.CourseIDs() {
				g.Expect(seen[id]).To(BeFalse(), "course repeated in %s", scheduleKey(s))
				seen[id] = true
			}
			keys = append(keys, scheduleKey(s))
		}
		g.Expect(keys).To(ConsistOf("CMSC330+STAT400", "CMSC351+STAT400"))
	}
}

func TestSearchStrategiesAgree(t *testing.T) {
	g := NewWithT(t)
	courses := []models.Course{
		course("C1", 4, 0.95), course("C2", 3, 0.9), course("C3", 3, 0.85), course("C4", 1, 0.4),
		course("C5", 4, 0.6), course("C6", 3, 0.55), course("C7", 0, 0.3), course("C8", 2, 0.2),
	}
	sections := map[string]models.ScoredSection{
		"C1": scored("C1", 0.9, meeting(480, 530, models.Monday, models.Wednesday)),
		"C2": scored("C2", 0.8, meeting(500, 560, models.Wednesday)),
		"C3": scored("C3", 0.7, meeting(600, 675, models.Tuesday, models.Thursday)),
		"C4": scored("C4", 0.6, meeting(900, 1010, models.Friday)),
		"C5": scored("C5", 0.5, meeting(630, 700, models.Thursday)),
		"C6": scored("C6", 0.4, meeting(720, 770, models.Monday)),
		"C7": scored("C7", 0.3),
		"C8": scored("C8", 0.2, meeting(720, 780, models.Monday)),
	}
	opts := SearchOptions{TargetCredits: 10, Tolerance: 3, MaxResults: 1000, WorkMultiplier: 1000}

	keysFor := func(strategy Strategy) []string {
		opts.Strategy = strategy
		found, stats := Search(courses, sections, opts)
		g.Expect(stats.Truncated).To(BeFalse())
		keys := make([]string, len(found))
		for i, s := range found {
			lower, upper := opts.WithDefaults().CreditWindow()
			g.Expect(s.TotalCredits).To(BeNumerically(">=", lower))
			g.Expect(s.TotalCredits).To(BeNumerically("<=", upper))
			keys[i] = scheduleKey(s)
		}
		sort.Strings(keys)
		return keys
	}

	dp := keysFor(StrategyBuckets)
	g.Expect(dp).NotTo(BeEmpty())
	g.Expect(keysFor(StrategyBacktrack)).To(Equal(dp))
	g.Expect(dp).To(ContainElement("C3+C4+C6+C7"))
	g.Expect(dp).NotTo(ContainElement("C1+C2+C3"))
}

func TestSearchIsDeterministic(t *testing.T) {
	g := NewWithT(t)
	courses, sections := compatiblePool(7, 3)
	engine := NewEngine(DefaultScoreWeights(), DefaultRankWeights())
	opts := SearchOptions{TargetCredits: 12, Tolerance: 3, MaxResults: 5}

	first, _ := engine.Plan(courses, sections, opts)
	second, _ := engine.Plan(courses, sections, opts)
	g.Expect(second).To(Equal(first))
}

func TestSearchStateBudget(t *testing.T) {
	g := NewWithT(t)
	courses, sections := compatiblePool(12, 1)

	found, stats := Search(courses, sections, SearchOptions{TargetCredits: 10, Tolerance: 0, MaxResults: 5, MaxStates: 40})
	g.Expect(stats.Truncated).To(BeTrue())
	g.Expect(stats.States).To(BeNumerically("<=", 40))
	for _, s := range found {
		g.Expect(s.TotalCredits).To(Equal(10))
	}
}

func TestSearchOptionsDefaults(t *testing.T) {
	g := NewWithT(t)
	opts := SearchOptions{TargetCredits: 2, Tolerance: -1}.WithDefaults()

	g.Expect(opts.Tolerance).To(Equal(DefaultTolerance))
	g.Expect(opts.MaxResults).To(Equal(DefaultMaxResults))
	g.Expect(opts.Strategy).To(Equal(StrategyBuckets))
	lower, upper := opts.CreditWindow()
	g.Expect(lower).To(Equal(0))
	g.Expect(upper).To(Equal(5))
}
