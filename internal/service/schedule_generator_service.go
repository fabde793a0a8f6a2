package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

const (
	generationCachePrefix = "schedule:gen:"
	resultCachePrefix     = "schedule:result:"
)

type sectionFetcher interface {
	FetchSections(ctx context.Context, courseID string) ([]models.Section, error)
}

type instructorQualitySource interface {
	Quality(ctx context.Context, name string) float64
}

type scheduleResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ScheduleGeneratorConfig governs generator behaviour. A negative Search.Tolerance selects the default.
type ScheduleGeneratorConfig struct {
	Search         scheduler.SearchOptions
	ResolveWorkers int
	ResolveTimeout time.Duration
	ResultTTL      time.Duration
	CacheTTL       time.Duration
}

// ScheduleGeneratorService resolves sections for candidate courses and runs the scheduling engine.
type ScheduleGeneratorService struct {
	sections  sectionFetcher
	ratings   instructorQualitySource
	engine    *scheduler.Engine
	cache     scheduleResultCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
	store     *resultStore
	now       func() time.Time
}

// NewScheduleGeneratorService wires generator dependencies. cache and metrics may be nil.
func NewScheduleGeneratorService(
	sections sectionFetcher,
	ratings instructorQualitySource,
	engine *scheduler.Engine,
	cache scheduleResultCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scheduler.NewEngine(scheduler.DefaultScoreWeights(), scheduler.DefaultRankWeights())
	}
	if cfg.ResolveWorkers <= 0 {
		cfg.ResolveWorkers = 8
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 5 * time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	cfg.Search = cfg.Search.WithDefaults()

	return &ScheduleGeneratorService{
		sections:  sections,
		ratings:   ratings,
		engine:    engine,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newResultStore(cfg.ResultTTL),
		now:       time.Now,
	}
}

// Generate returns ranked, conflict-free schedules for the candidate courses. Courses whose sections
// cannot be resolved are excluded and reported; only a request where no course resolves fails.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	start := s.now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	opts := s.searchOptions(req)
	eligible, excluded := filterCandidates(req)

	cacheKey := generationCachePrefix + requestDigest(req, opts)
	if cached, ok := s.cached(ctx, cacheKey); ok {
		cached.Stats.Cached = true
		s.store.Save(*cached)
		s.metrics.ObserveGeneration(string(opts.Strategy), "cached", s.now().Sub(start), 0, false, len(cached.Excluded))
		return cached, nil
	}

	if len(eligible) == 0 {
		s.metrics.ObserveGeneration(string(opts.Strategy), "failed", s.now().Sub(start), 0, false, len(excluded))
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no candidate course is eligible for scheduling")
	}

	sections, unresolved := s.resolveSections(ctx, eligible)
	excluded = append(excluded, unresolved...)
	if len(sections) == 0 {
		s.metrics.ObserveGeneration(string(opts.Strategy), "failed", s.now().Sub(start), 0, false, len(excluded))
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no candidate course has resolvable sections")
	}

	courses := lo.Filter(eligible, func(c models.Course, _ int) bool {
		_, ok := sections[c.ID]
		return ok
	})
	schedules, stats := s.engine.Plan(courses, sections, opts)
	if schedules == nil {
		schedules = []models.Schedule{}
	}

	duration := s.now().Sub(start)
	resp := dto.GenerateScheduleResponse{
		ResultID:    uuid.NewString(),
		GeneratedAt: s.now().UTC(),
		Schedules:   schedules,
		Excluded:    excluded,
		Stats: dto.GenerationStats{
			Requested:     len(req.Courses),
			Eligible:      len(eligible),
			Resolved:      len(sections),
			States:        stats.States,
			Candidates:    stats.Candidates,
			Truncated:     stats.Truncated,
			Strategy:      string(opts.Strategy),
			TargetCredits: opts.TargetCredits,
			Tolerance:     opts.Tolerance,
			MaxResults:    opts.MaxResults,
			DurationMs:    float64(duration) / float64(time.Millisecond),
		},
	}

	outcome := "ok"
	if len(schedules) == 0 {
		outcome = "empty"
	}
	s.metrics.ObserveGeneration(string(opts.Strategy), outcome, duration, stats.States, stats.Truncated, len(excluded))
	s.logger.Info("schedule generation complete",
		zap.String("result_id", resp.ResultID),
		zap.Int("courses", len(courses)),
		zap.Int("candidates", stats.Candidates),
		zap.Int("returned", len(schedules)),
		zap.Int("excluded", len(excluded)),
		zap.Bool("truncated", stats.Truncated),
		zap.Duration("duration", duration),
	)

	s.store.Save(resp)
	s.remember(ctx, cacheKey, resp)
	return &resp, nil
}

// Result returns a previously generated response by id.
func (s *ScheduleGeneratorService) Result(ctx context.Context, id string) (*dto.GenerateScheduleResponse, error) {
	if resp, ok := s.store.Get(id); ok {
		return &resp, nil
	}
	if s.cache != nil {
		var resp dto.GenerateScheduleResponse
		hit, err := s.cache.Get(ctx, resultCachePrefix+id, &resp)
		if err == nil && hit {
			s.store.Save(resp)
			return &resp, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule result not found or expired")
}

func (s *ScheduleGeneratorService) searchOptions(req dto.GenerateScheduleRequest) scheduler.SearchOptions {
	opts := s.cfg.Search
	opts.TargetCredits = req.TargetCredits
	if req.Tolerance != nil {
		opts.Tolerance = *req.Tolerance
	}
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}
	if req.Strategy != "" {
		opts.Strategy = scheduler.Strategy(req.Strategy)
	}
	return opts.WithDefaults()
}

func (s *ScheduleGeneratorService) cached(ctx context.Context, key string) (*dto.GenerateScheduleResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	var resp dto.GenerateScheduleResponse
	hit, err := s.cache.Get(ctx, key, &resp)
	if err != nil {
		s.logger.Warn("schedule cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &resp, true
}

func (s *ScheduleGeneratorService) remember(ctx context.Context, key string, resp dto.GenerateScheduleResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, resultCachePrefix+resp.ResultID, resp, s.cfg.ResultTTL); err != nil {
		s.logger.Warn("schedule result cache write failed", zap.String("result_id", resp.ResultID), zap.Error(err))
	}
}

// filterCandidates drops duplicates, completed courses and courses whose prerequisites are unmet.
// Eligible courses carry the normalized id used for section lookup, caching and storage.
func filterCandidates(req dto.GenerateScheduleRequest) ([]models.Course, []dto.ExcludedCourse) {
	completed := lo.SliceToMap(req.CompletedCourses, func(id string) (string, struct{}) {
		return normalizeCourseID(id), struct{}{}
	})

	seen := make(map[string]struct{}, len(req.Courses))
	eligible := make([]models.Course, 0, len(req.Courses))
	excluded := make([]dto.ExcludedCourse, 0)
	for _, input := range req.Courses {
		key := normalizeCourseID(input.ID)
		switch {
		case lo.HasKey(seen, key):
			excluded = append(excluded, dto.ExcludedCourse{CourseID: input.ID, Reason: dto.ExcludedDuplicate})
			continue
		case lo.HasKey(completed, key):
			excluded = append(excluded, dto.ExcludedCourse{CourseID: input.ID, Reason: dto.ExcludedCompleted})
		case input.PrerequisitesMet != nil && !*input.PrerequisitesMet:
			excluded = append(excluded, dto.ExcludedCourse{CourseID: input.ID, Reason: dto.ExcludedPrerequisites})
		default:
			course := input.Model()
			course.ID = key
			eligible = append(eligible, course)
		}
		seen[key] = struct{}{}
	}
	return eligible, excluded
}

type resolution struct {
	course  models.Course
	section models.ScoredSection
	reason  string
}

// resolveSections fetches and scores sections for every course concurrently under the resolve
// deadline. Courses still pending at the deadline are reported as excluded.
func (s *ScheduleGeneratorService) resolveSections(ctx context.Context, courses []models.Course) (map[string]models.ScoredSection, []dto.ExcludedCourse) {
	rctx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout)
	defer cancel()

	collected := newResolutionSet(len(courses))
	done := make(chan struct{})
	go func() {
		defer close(done)
		p := pool.New().WithMaxGoroutines(s.cfg.ResolveWorkers)
		for _, course := range courses {
			course := course
			p.Go(func() {
				if rctx.Err() != nil {
					return
				}
				collected.add(s.resolveCourse(rctx, course))
			})
		}
		p.Wait()
	}()

	select {
	case <-done:
	case <-rctx.Done():
		s.logger.Warn("section resolution deadline exceeded",
			zap.Int("resolved", collected.len()),
			zap.Int("requested", len(courses)),
			zap.Duration("timeout", s.cfg.ResolveTimeout),
		)
	}
	results := collected.close()

	sections := make(map[string]models.ScoredSection, len(results))
	excluded := make([]dto.ExcludedCourse, 0)
	for _, course := range courses {
		res, ok := results[course.ID]
		switch {
		case !ok:
			s.metrics.RecordCourseResolution("deadline")
			excluded = append(excluded, dto.ExcludedCourse{CourseID: course.ID, Reason: dto.ExcludedDeadlineExceeded})
		case res.reason != "":
			s.metrics.RecordCourseResolution(strings.ToLower(res.reason))
			excluded = append(excluded, dto.ExcludedCourse{CourseID: course.ID, Reason: res.reason})
		default:
			s.metrics.RecordCourseResolution("resolved")
			sections[course.ID] = res.section
		}
	}
	return sections, excluded
}

func (s *ScheduleGeneratorService) resolveCourse(ctx context.Context, course models.Course) (res resolution) {
	res.course = course
	var catcher panics.Catcher
	catcher.Try(func() {
		res = s.scoreCourse(ctx, course)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		s.logger.Error("section lookup panicked", zap.String("course_id", course.ID), zap.Any("panic", recovered.Value))
		res = resolution{course: course, reason: dto.ExcludedLookupFailed}
	}
	return res
}

func (s *ScheduleGeneratorService) scoreCourse(ctx context.Context, course models.Course) resolution {
	offered, err := s.sections.FetchSections(ctx, course.ID)
	if err != nil {
		reason := dto.ExcludedLookupFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = dto.ExcludedDeadlineExceeded
		}
		s.logger.Warn("section lookup failed", zap.String("course_id", course.ID), zap.Error(err))
		return resolution{course: course, reason: reason}
	}
	if len(offered) == 0 {
		s.logger.Warn("course has no open sections", zap.String("course_id", course.ID))
		return resolution{course: course, reason: dto.ExcludedNoSections}
	}

	quality := func(section models.Section) float64 {
		return scheduler.InstructorQuality(section.Instructors, func(name string) float64 {
			if s.ratings == nil {
				return 0
			}
			return s.ratings.Quality(ctx, name)
		})
	}
	scored := s.engine.Scorer().ScoreSections(offered, quality, course.PreferenceScore)
	best, ok := scheduler.BestSection(scored)
	if !ok {
		return resolution{course: course, reason: dto.ExcludedNoSections}
	}
	return resolution{course: course, section: best}
}

// resolutionSet collects per-course results; once closed, late arrivals are dropped.
type resolutionSet struct {
	mu      sync.Mutex
	closed  bool
	results map[string]resolution
}

func newResolutionSet(size int) *resolutionSet {
	return &resolutionSet{results: make(map[string]resolution, size)}
}

func (r *resolutionSet) add(res resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.results[res.course.ID] = res
}

func (r *resolutionSet) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *resolutionSet) close() map[string]resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make(map[string]resolution, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

type canonicalCourse struct {
	ID         string   `json:"id"`
	Credits    int      `json:"credits"`
	Categories []string `json:"categories"`
	Preference string   `json:"preference"`
	Major      bool     `json:"major"`
	Prereqs    string   `json:"prereqs"`
}

type canonicalRequest struct {
	Courses    []canonicalCourse `json:"courses"`
	Completed  []string          `json:"completed"`
	Target     int               `json:"target"`
	Tolerance  int               `json:"tolerance"`
	MaxResults int               `json:"maxResults"`
	Strategy   string            `json:"strategy"`
}

// requestDigest hashes an order-independent form of the request so permuted course lists share a key.
func requestDigest(req dto.GenerateScheduleRequest, opts scheduler.SearchOptions) string {
	courses := lo.Map(req.Courses, func(c dto.CourseInput, _ int) canonicalCourse {
		categories := lo.Uniq(c.Categories)
		sort.Strings(categories)
		prereqs := "unknown"
		if c.PrerequisitesMet != nil {
			prereqs = fmt.Sprintf("%t", *c.PrerequisitesMet)
		}
		return canonicalCourse{
			ID:         normalizeCourseID(c.ID),
			Credits:    c.Credits,
			Categories: categories,
			Preference: fmt.Sprintf("%.6f", c.PreferenceScore),
			Major:      c.IsMajorCourse,
			Prereqs:    prereqs,
		}
	})
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })

	completed := lo.Uniq(lo.Map(req.CompletedCourses, func(id string, _ int) string { return normalizeCourseID(id) }))
	sort.Strings(completed)

	payload, _ := json.Marshal(canonicalRequest{
		Courses:    courses,
		Completed:  completed,
		Target:     opts.TargetCredits,
		Tolerance:  opts.Tolerance,
		MaxResults: opts.MaxResults,
		Strategy:   string(opts.Strategy),
	})
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func normalizeCourseID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

type resultStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.GenerateScheduleResponse
}

func newResultStore(ttl time.Duration) *resultStore {
	return &resultStore{
		ttl:   ttl,
		items: make(map[string]dto.GenerateScheduleResponse),
	}
}

func (s *resultStore) Save(resp dto.GenerateScheduleResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[resp.ResultID] = resp
	s.evictExpiredLocked()
}

func (s *resultStore) Get(id string) (dto.GenerateScheduleResponse, bool) {
	s.mu.RLock()
	resp, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerateScheduleResponse{}, false
	}
	if time.Since(resp.GeneratedAt) > s.ttl {
		s.Delete(id)
		return dto.GenerateScheduleResponse{}, false
	}
	return resp, true
}

func (s *resultStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *resultStore) evictExpiredLocked() {
	for id, resp := range s.items {
		if time.Since(resp.GeneratedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}
