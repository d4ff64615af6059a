package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/queue"
)

// StartWorker runs queued jobs one after another until ctx is done or the
// queue is closed.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				m.logger.Info("job worker stopping")
				return
			}
			m.logger.Error("failed to take next job", "error", err)
			continue
		}

		m.processJob(ctx, task)
	}
}

func (m *Manager) processJob(ctx context.Context, task *queue.Task) {
	m.logger.Info("processing job", "id", task.ID, "term", task.Term)
	m.markRunning(task.ID)

	summary, err := m.runner.Run(ctx, search.Request{
		JobID:  task.ID,
		Term:   task.Term,
		Region: task.Region,
	})
	if err != nil {
		m.logger.Error("job failed", "id", task.ID, "error", err)
		m.finish(task.ID, nil, err)
		return
	}

	m.finish(task.ID, summary, nil)
	m.logger.Info("job completed", "id", task.ID, "final", summary.Final)
}

func (m *Manager) markRunning(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[id]; ok {
		now := time.Now()
		job.Status = StatusRunning
		job.StartedAt = &now
	}
}

func (m *Manager) finish(id string, summary *search.Summary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}

	now := time.Now()
	job.CompletedAt = &now
	job.Summary = summary

	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = StatusCompleted
}
