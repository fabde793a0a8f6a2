package scheduler

import "github.com/noah-isme/course-planner-api/internal/models"

// Engine runs search and ranking with a fixed set of weights. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	scorer *Scorer
	ranker *Ranker
}

// NewEngine builds an engine from the given weights.
func NewEngine(scoreWeights ScoreWeights, rankWeights RankWeights) *Engine {
	return &Engine{scorer: NewScorer(scoreWeights), ranker: NewRanker(rankWeights)}
}

// Scorer exposes the section scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Ranker exposes the schedule ranker.
func (e *Engine) Ranker() *Ranker {
	return e.ranker
}

// Plan searches for credit-feasible, conflict-free schedules and returns the top
// opts.MaxResults of them. An empty result is not an error.
func (e *Engine) Plan(courses []models.Course, sections map[string]models.ScoredSection, opts SearchOptions) ([]models.Schedule, SearchStats) {
	opts = opts.WithDefaults()
	candidates, stats := Search(courses, sections, opts)
	return e.ranker.Rank(candidates, opts.MaxResults), stats
}
