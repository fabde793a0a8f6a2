package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type instructorRatingStore interface {
	GetByName(ctx context.Context, name string) (*models.InstructorRating, error)
	ListAll(ctx context.Context) ([]models.InstructorRating, error)
	Upsert(ctx context.Context, rating *models.InstructorRating) error
}

// InstructorRatingService is the process-scoped instructor quality cache. It is populated once
// from the rating store, read concurrently by generation requests and refreshed by the rating sync job.
type InstructorRatingService struct {
	repo   instructorRatingStore
	logger *zap.Logger

	loadMu   sync.Mutex
	mu       sync.RWMutex
	ratings  map[string]float64
	loaded   bool
	loadedAt time.Time
}

// NewInstructorRatingService constructs the cache. Nothing is read until first use or Load.
func NewInstructorRatingService(repo instructorRatingStore, logger *zap.Logger) *InstructorRatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorRatingService{repo: repo, logger: logger, ratings: make(map[string]float64)}
}

// Load populates the cache once. Later calls are no-ops until Refresh.
func (s *InstructorRatingService) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.reload(ctx, false)
}

// Refresh replaces the cache contents with the current store.
func (s *InstructorRatingService) Refresh(ctx context.Context) error {
	return s.reload(ctx, true)
}

func (s *InstructorRatingService) reload(ctx context.Context, force bool) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if !force {
		s.mu.RLock()
		loaded := s.loaded
		s.mu.RUnlock()
		if loaded {
			return nil
		}
	}

	ratings, err := s.repo.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor ratings")
	}

	next := make(map[string]float64, len(ratings))
	for _, rating := range ratings {
		next[ratingKey(rating.Name)] = rating.AverageRating
	}

	s.mu.Lock()
	s.ratings = next
	s.loaded = true
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Info("instructor ratings loaded", zap.Int("count", len(next)))
	return nil
}

// Quality returns the instructor's average rating in [0,5], or 0 when unknown. It never fails:
// if the cache cannot be populated the store is consulted per name.
func (s *InstructorRatingService) Quality(ctx context.Context, name string) float64 {
	key := ratingKey(name)
	if key == "" || key == "tba" {
		return 0
	}

	if err := s.Load(ctx); err != nil {
		s.logger.Warn("instructor rating cache unavailable", zap.Error(err))
		return s.lookup(ctx, name)
	}

	s.mu.RLock()
	rating := s.ratings[key]
	s.mu.RUnlock()
	return rating
}

func (s *InstructorRatingService) lookup(ctx context.Context, name string) float64 {
	rating, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			s.logger.Debug("instructor rating lookup failed", zap.String("instructor", name), zap.Error(err))
		}
		return 0
	}
	return rating.AverageRating
}

// Put stores a rating and makes it visible to readers immediately.
func (s *InstructorRatingService) Put(ctx context.Context, rating models.InstructorRating) error {
	if err := s.repo.Upsert(ctx, &rating); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store instructor rating")
	}
	s.mu.Lock()
	s.ratings[ratingKey(rating.Name)] = rating.AverageRating
	s.mu.Unlock()
	return nil
}

// Size reports how many instructors are cached.
func (s *InstructorRatingService) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// LoadedAt reports when the cache was last populated.
func (s *InstructorRatingService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func ratingKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
