package csvio

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

// Catalog is an in-memory section and rating store with the same read surface as the Postgres repositories.
type Catalog struct {
	mu       sync.RWMutex
	sections map[string][]models.SectionRecord
	ratings  map[string]models.InstructorRating
}

// NewCatalog indexes records by course.
func NewCatalog(sections []models.SectionRecord, ratings []models.InstructorRating) *Catalog {
	c := &Catalog{
		sections: make(map[string][]models.SectionRecord),
		ratings:  make(map[string]models.InstructorRating, len(ratings)),
	}
	for _, record := range sections {
		c.sections[record.CourseID] = append(c.sections[record.CourseID], record)
	}
	for _, rating := range ratings {
		c.ratings[rating.Name] = rating
	}
	return c
}

// ListByCourse returns a course's sections ordered by section id.
func (c *Catalog) ListByCourse(_ context.Context, courseID string, openOnly bool) ([]models.SectionRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := []models.SectionRecord{}
	for _, record := range c.sections[strings.ToUpper(strings.TrimSpace(courseID))] {
		if openOnly && record.OpenSeats <= 0 {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SectionID < records[j].SectionID })
	return records, nil
}

// GetByName returns one instructor's rating.
func (c *Catalog) GetByName(_ context.Context, name string) (*models.InstructorRating, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rating, ok := c.ratings[name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor rating not found")
	}
	return &rating, nil
}

// ListAll returns every rating.
func (c *Catalog) ListAll(context.Context) ([]models.InstructorRating, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.InstructorRating, 0, len(c.ratings))
	for _, rating := range c.ratings {
		out = append(out, rating)
	}
	return out, nil
}

// Upsert stores a rating.
func (c *Catalog) Upsert(_ context.Context, rating *models.InstructorRating) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ratings[rating.Name] = *rating
	return nil
}
