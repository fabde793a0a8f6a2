package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJobType is returned when no handler is registered for a job type.
var ErrUnknownJobType = errors.New("unknown job type")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// State describes where a job is in its lifecycle.
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// Status is the externally visible record of a job.
type Status struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	State      State      `json:"state"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"lastError,omitempty"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
// Handlers are registered per job type before Start.
type Queue struct {
	name     string
	handlers map[string]Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	statusMu sync.RWMutex
	statuses map[string]*Status
}

// NewQueue builds a new queue.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handlers:   make(map[string]Handler),
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
		statuses:   make(map[string]*Status),
	}
}

// Register binds a handler to a job type, replacing any previous binding.
func (q *Queue) Register(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue pushes a job onto the queue.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	_, known := q.handlers[job.Type]
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if !known {
		return fmt.Errorf("queue %s: %w %q", q.name, ErrUnknownJobType, job.Type)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if job.Attempt == 0 {
		q.track(job, StateQueued, nil)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// Status reports the last known state of a job.
func (q *Queue) Status(id string) (Status, bool) {
	q.statusMu.RLock()
	defer q.statusMu.RUnlock()
	status, ok := q.statuses[id]
	if !ok {
		return Status{}, false
	}
	return *status, true
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	q.mu.Lock()
	handler := q.handlers[job.Type]
	q.mu.Unlock()

	q.track(job, StateRunning, nil)
	if err := handler(q.ctx, job); err != nil {
		q.handleFailure(job, err)
		return
	}
	q.track(job, StateSucceeded, nil)
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.track(job, StateFailed, err)
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	q.track(job, StateQueued, err)
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}

func (q *Queue) track(job Job, state State, err error) {
	q.statusMu.Lock()
	defer q.statusMu.Unlock()
	status, ok := q.statuses[job.ID]
	if !ok {
		status = &Status{ID: job.ID, Type: job.Type, EnqueuedAt: job.Enqueued}
		q.statuses[job.ID] = status
	}
	status.State = state
	status.Attempts = job.Attempt
	if err != nil {
		status.LastError = err.Error()
	}
	if state == StateSucceeded || state == StateFailed {
		now := time.Now().UTC()
		status.FinishedAt = &now
	}
}
