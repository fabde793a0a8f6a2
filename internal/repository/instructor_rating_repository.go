package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

// InstructorRatingRepository persists aggregated instructor ratings.
type InstructorRatingRepository struct {
	db *sqlx.DB
}

// NewInstructorRatingRepository constructs the repository.
func NewInstructorRatingRepository(db *sqlx.DB) *InstructorRatingRepository {
	return &InstructorRatingRepository{db: db}
}

// GetByName returns the rating for an instructor or ErrNotFound.
func (r *InstructorRatingRepository) GetByName(ctx context.Context, name string) (*models.InstructorRating, error) {
	const query = `SELECT name, average_rating, review_count, updated_at FROM instructor_ratings WHERE name = $1`
	var rating models.InstructorRating
	if err := r.db.GetContext(ctx, &rating, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor rating not found")
		}
		return nil, fmt.Errorf("get instructor rating: %w", err)
	}
	return &rating, nil
}

// ListAll returns every stored rating.
func (r *InstructorRatingRepository) ListAll(ctx context.Context) ([]models.InstructorRating, error) {
	const query = `SELECT name, average_rating, review_count, updated_at FROM instructor_ratings ORDER BY name`
	var ratings []models.InstructorRating
	if err := r.db.SelectContext(ctx, &ratings, query); err != nil {
		return nil, fmt.Errorf("list instructor ratings: %w", err)
	}
	return ratings, nil
}

// Upsert creates or updates a rating keyed by instructor name.
func (r *InstructorRatingRepository) Upsert(ctx context.Context, rating *models.InstructorRating) error {
	rating.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO instructor_ratings (name, average_rating, review_count, updated_at)
		VALUES (:name, :average_rating, :review_count, :updated_at)
		ON CONFLICT (name) DO UPDATE
		SET average_rating = EXCLUDED.average_rating,
		    review_count = EXCLUDED.review_count,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("upsert instructor rating: %w", err)
	}
	return nil
}
