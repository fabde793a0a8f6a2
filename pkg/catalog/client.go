// Package catalog talks to the external course catalog and instructor rating APIs.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ErrNotFound is returned when the upstream has no record for the lookup.
var ErrNotFound = errors.New("catalog: not found")

// MeetingPayload is one meeting block as published by the catalog.
type MeetingPayload struct {
	Days      string `mapstructure:"days"`
	StartTime string `mapstructure:"start_time"`
	EndTime   string `mapstructure:"end_time"`
	Building  string `mapstructure:"building"`
	Room      string `mapstructure:"room"`
	ClassType string `mapstructure:"classtype"`
}

// SectionPayload is a section as published by the catalog. Seat counts arrive as strings.
type SectionPayload struct {
	CourseID    string           `mapstructure:"course"`
	SectionID   string           `mapstructure:"section_id"`
	Seats       int              `mapstructure:"seats"`
	OpenSeats   int              `mapstructure:"open_seats"`
	Waitlist    int              `mapstructure:"waitlist"`
	Instructors []string         `mapstructure:"instructors"`
	Meetings    []MeetingPayload `mapstructure:"meetings"`
}

// ProfessorPayload is the rating summary for one instructor.
type ProfessorPayload struct {
	Name          string        `mapstructure:"name"`
	Slug          string        `mapstructure:"slug"`
	AverageRating float64       `mapstructure:"average_rating"`
	Reviews       []interface{} `mapstructure:"reviews"`
}

// ReviewCount reports how many reviews back the average.
func (p ProfessorPayload) ReviewCount() int {
	return len(p.Reviews)
}

// Config configures the catalog client.
type Config struct {
	SectionsBaseURL string
	RatingsBaseURL  string
	Timeout         time.Duration
	UserAgent       string
}

// Client fetches sections and instructor ratings.
type Client struct {
	sectionsBase string
	ratingsBase  string
	userAgent    string
	http         *http.Client
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "course-planner-api/1.0"
	}
	return &Client{
		sectionsBase: strings.TrimRight(cfg.SectionsBaseURL, "/"),
		ratingsBase:  strings.TrimRight(cfg.RatingsBaseURL, "/"),
		userAgent:    ua,
		http:         httpClient,
	}
}

// Sections returns every published section of a course.
func (c *Client) Sections(ctx context.Context, courseID string) ([]SectionPayload, error) {
	endpoint := c.sectionsBase + "/courses/sections?" + url.Values{"course_id": {courseID}}.Encode()
	var raw []map[string]interface{}
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch sections for %s: %w", courseID, err)
	}

	sections := make([]SectionPayload, 0, len(raw))
	for _, item := range raw {
		var section SectionPayload
		if err := decode(item, &section); err != nil {
			return nil, fmt.Errorf("decode section for %s: %w", courseID, err)
		}
		if section.CourseID == "" {
			section.CourseID = courseID
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// Professor returns the rating summary for an instructor name.
func (c *Client) Professor(ctx context.Context, name string) (ProfessorPayload, error) {
	endpoint := c.ratingsBase + "/professor?" + url.Values{"name": {name}, "reviews": {"true"}}.Encode()
	var raw map[string]interface{}
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return ProfessorPayload{}, fmt.Errorf("fetch professor %q: %w", name, err)
	}
	var professor ProfessorPayload
	if err := decode(raw, &professor); err != nil {
		return ProfessorPayload{}, fmt.Errorf("decode professor %q: %w", name, err)
	}
	if professor.Name == "" {
		professor.Name = name
	}
	return professor, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decode maps loosely typed JSON onto payload structs. Nulls become zero values.
func decode(input interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
