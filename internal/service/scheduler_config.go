package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/scheduler"
	"github.com/noah-isme/course-planner-api/pkg/config"
)

// NewEngineFromConfig builds the scheduling engine from configured weights. Scorer weights that
// do not sum to 1 are replaced by the defaults.
func NewEngineFromConfig(w config.WeightsConfig, logger *zap.Logger) *scheduler.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	score := scheduler.ScoreWeights{Instructor: w.Instructor, Preference: w.Preference}
	if err := score.Validate(); err != nil {
		logger.Warn("invalid scorer weights, using defaults", zap.Error(err))
		score = scheduler.DefaultScoreWeights()
	}
	rank := scheduler.RankWeights{
		Section:        w.Section,
		Diversity:      w.Diversity,
		MajorBonus:     w.MajorBonus,
		MajorThreshold: w.MajorThreshold,
	}
	return scheduler.NewEngine(score, rank)
}

// GeneratorConfigFromConfig maps scheduler settings onto the generator.
func GeneratorConfigFromConfig(c config.SchedulerConfig) ScheduleGeneratorConfig {
	return ScheduleGeneratorConfig{
		Search: scheduler.SearchOptions{
			Tolerance:      c.Tolerance,
			MaxResults:     c.MaxResults,
			WorkMultiplier: c.WorkMultiplier,
			MaxStates:      c.MaxStates,
			Strategy:       scheduler.Strategy(c.Strategy),
		},
		ResolveWorkers: c.ResolveWorkers,
		ResolveTimeout: c.ResolveTimeout,
		ResultTTL:      c.ResultTTL,
		CacheTTL:       c.CacheTTL,
	}
}
