package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type ratingRepoStub struct {
	mu        sync.Mutex
	ratings   []models.InstructorRating
	listErr   error
	listCalls int
	upserts   []models.InstructorRating
}

func (r *ratingRepoStub) GetByName(_ context.Context, name string) (*models.InstructorRating, error) {
	for _, rating := range r.ratings {
		if rating.Name == name {
			rating := rating
			return &rating, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor rating not found")
}

func (r *ratingRepoStub) ListAll(context.Context) ([]models.InstructorRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return r.ratings, r.listErr
}

func (r *ratingRepoStub) Upsert(_ context.Context, rating *models.InstructorRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, *rating)
	return nil
}

func TestInstructorRatingServicePopulatesOnce(t *testing.T) {
	repo := &ratingRepoStub{ratings: []models.InstructorRating{{Name: "Jane Doe", AverageRating: 4.5}}}
	svc := NewInstructorRatingService(repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 4.5, svc.Quality(context.Background(), "  jane   DOE "))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 0.0, svc.Quality(context.Background(), "Unknown Person"))
	assert.Equal(t, 0.0, svc.Quality(context.Background(), "TBA"))
	assert.Equal(t, 1, svc.Size())
	assert.False(t, svc.LoadedAt().IsZero())
}

func TestInstructorRatingServiceRefreshAndPut(t *testing.T) {
	repo := &ratingRepoStub{ratings: []models.InstructorRating{{Name: "Jane Doe", AverageRating: 4.5}}}
	svc := NewInstructorRatingService(repo, nil)
	require.NoError(t, svc.Load(context.Background()))

	repo.ratings = []models.InstructorRating{{Name: "Jane Doe", AverageRating: 3.0}}
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 3.0, svc.Quality(context.Background(), "Jane Doe"))

	require.NoError(t, svc.Put(context.Background(), models.InstructorRating{Name: "John Roe", AverageRating: 2.5, ReviewCount: 4}))
	assert.Equal(t, 2.5, svc.Quality(context.Background(), "john roe"))
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, 2, repo.listCalls)
}

func TestInstructorRatingServiceFallsBackWhenLoadFails(t *testing.T) {
	repo := &ratingRepoStub{
		ratings: []models.InstructorRating{{Name: "Jane Doe", AverageRating: 4.0}},
		listErr: errors.New("db down"),
	}
	svc := NewInstructorRatingService(repo, nil)

	assert.Equal(t, 4.0, svc.Quality(context.Background(), "Jane Doe"))
	assert.Equal(t, 0.0, svc.Quality(context.Background(), "Missing"))
	assert.Error(t, svc.Load(context.Background()))
}
