package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/queue"
)

var ErrJobNotFound = errors.New("job not found")

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Runner executes one search.
type Runner interface {
	Run(ctx context.Context, req search.Request) (*search.Summary, error)
}

// Job represents a queued search
type Job struct {
	ID          string          `json:"id"`
	Term        string          `json:"term"`
	Region      string          `json:"region,omitempty"`
	Priority    int             `json:"priority"`
	Status      string          `json:"status"`
	Summary     *search.Summary `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Stats represents job statistics
type Stats struct {
	TotalJobs     int `json:"total_jobs"`
	PendingJobs   int `json:"pending_jobs"`
	RunningJobs   int `json:"running_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	FailedJobs    int `json:"failed_jobs"`
	QueuedTasks   int `json:"queued_tasks"`
}

// Manager keeps jobs in memory and feeds them one at a time to the runner.
type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	queue  queue.Queue
	runner Runner
	logger *slog.Logger
}

func NewManager(q queue.Queue, runner Runner, logger *slog.Logger) *Manager {
	return &Manager{
		jobs:   make(map[string]*Job),
		queue:  q,
		runner: runner,
		logger: logger.With("component", "job_manager"),
	}
}

// CreateJob queues a new search. Higher priorities run first; equal
// priorities run in order of creation.
func (m *Manager) CreateJob(ctx context.Context, term, region string, priority int) (*Job, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, search.ErrEmptyTerm
	}

	job := &Job{
		ID:        uuid.New().String(),
		Term:      term,
		Region:    region,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	err := m.queue.Push(&queue.Task{
		ID:        job.ID,
		Term:      job.Term,
		Region:    job.Region,
		Priority:  job.Priority,
		CreatedAt: job.CreatedAt,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	m.logger.Info("job created", "id", job.ID, "term", term, "priority", priority)
	return job.snapshot(), nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job.snapshot(), nil
}

// ListJobs returns all jobs, newest first.
func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.snapshot())
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{TotalJobs: len(m.jobs), QueuedTasks: m.queue.Size()}
	for _, job := range m.jobs {
		switch job.Status {
		case StatusPending:
			stats.PendingJobs++
		case StatusRunning:
			stats.RunningJobs++
		case StatusCompleted:
			stats.CompletedJobs++
		case StatusFailed:
			stats.FailedJobs++
		}
	}

	return stats, nil
}

func (j *Job) snapshot() *Job {
	c := *j
	if j.Summary != nil {
		s := *j.Summary
		c.Summary = &s
	}
	return &c
}
