package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/jobs"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/queue"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
	"github.com/maltedev/amazon-search-ranker/internal/render"
	"github.com/maltedev/amazon-search-ranker/internal/session"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
)

type JobService interface {
	CreateJob(ctx context.Context, term, region string, priority int) (*jobs.Job, error)
	GetJob(ctx context.Context, jobID string) (*jobs.Job, error)
	ListJobs(ctx context.Context) ([]*jobs.Job, error)
	GetStats(ctx context.Context) (*jobs.Stats, error)
}

type Ranker interface {
	Rank(ctx context.Context, weights ranking.Weights, order ranking.Order) (string, []models.RankedRecord, error)
	Active() (string, bool)
}

type Handlers struct {
	jobs     JobService
	ranker   Ranker
	defaults ranking.Weights
	order    ranking.Order
	logger   *slog.Logger
}

func NewHandlers(jobs JobService, ranker Ranker, defaults ranking.Weights, order ranking.Order, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:     jobs,
		ranker:   ranker,
		defaults: defaults,
		order:    order,
		logger:   logger.With("component", "api"),
	}
}

// CreateSearchRequest represents the request to start a search
type CreateSearchRequest struct {
	Term     string `json:"term"`
	Region   string `json:"region,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type CreateSearchResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateSearch queues a new search job
func (h *Handlers) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req CreateSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.Term, req.Region, req.Priority)
	switch {
	case errors.Is(err, search.ErrEmptyTerm):
		h.respondError(w, http.StatusBadRequest, "term is required")
		return
	case errors.Is(err, queue.ErrQueueFull):
		h.respondError(w, http.StatusServiceUnavailable, "too many pending searches")
		return
	case err != nil:
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateSearchResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetSearch returns a single search job
func (h *Handlers) GetSearch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListSearches lists all search jobs
func (h *Handlers) ListSearches(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	h.respondJSON(w, http.StatusOK, list)
}

type ResultsResponse struct {
	Term     string          `json:"term"`
	Currency string          `json:"currency"`
	Weights  ranking.Weights `json:"weights"`
	Order    ranking.Order   `json:"order"`
	Warning  string          `json:"warning,omitempty"`
	Results  []render.Card   `json:"results"`
}

// GetResults ranks the active result set with the weights in the query.
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	weights, err := h.parseWeights(q.Get("pop"), q.Get("price"), q.Get("disc"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order := h.order
	if raw := q.Get("order"); raw != "" {
		if order, err = ranking.ParseOrder(raw); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	term, ranked, err := h.ranker.Rank(r.Context(), weights, order)
	switch {
	case errors.Is(err, ranking.ErrInvalidWeight):
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, session.ErrNoActiveSearch), errors.Is(err, storage.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "no results available, run a search first")
		return
	case err != nil:
		h.logger.Error("failed to rank results", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to rank results")
		return
	}

	if q.Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.HTML(w, render.NewPage(term, weights, order, ranked)); err != nil {
			h.logger.Error("failed to render results", "error", err)
		}
		return
	}

	resp := ResultsResponse{
		Term:     term,
		Currency: render.HeaderCurrency(ranked),
		Weights:  weights,
		Order:    order,
		Results:  render.Cards(ranked),
	}
	if !weights.SumsToOne() {
		resp.Warning = fmt.Sprintf("weights sum to %.2f, not 1", weights.Sum())
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.GetStats(r.Context())
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "job stats unavailable")
		return
	}

	term, _ := h.ranker.Active()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"active_term": term,
		"jobs":        stats,
	})
}

// parseWeights falls back to the configured weight for each missing value.
func (h *Handlers) parseWeights(pop, price, disc string) (ranking.Weights, error) {
	w := h.defaults

	for _, p := range []struct {
		name  string
		raw   string
		field *float64
	}{
		{"pop", pop, &w.Popularity},
		{"price", price, &w.Price},
		{"disc", disc, &w.Discount},
	} {
		if p.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(p.raw, 64)
		if err != nil {
			return w, fmt.Errorf("invalid %s weight %q", p.name, p.raw)
		}
		*p.field = v
	}

	return w, w.Validate()
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
