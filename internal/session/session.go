package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
)

var ErrNoActiveSearch = errors.New("no search has completed yet")

// Session tracks the most recent search. Its result set lives in the store
// and is reloaded for every ranking request.
type Session struct {
	mu    sync.RWMutex
	store storage.Store
	term  string
}

func New(store storage.Store) *Session {
	return &Session{store: store}
}

// Replace persists records as the new active set.
func (s *Session) Replace(ctx context.Context, term string, records []models.ScoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, term, records); err != nil {
		return fmt.Errorf("failed to save results for %q: %w", term, err)
	}

	s.term = term
	return nil
}

// Active returns the term of the current result set.
func (s *Session) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term, s.term != ""
}

func (s *Session) Records(ctx context.Context) (string, []models.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.term == "" {
		return "", nil, ErrNoActiveSearch
	}

	records, err := s.store.Load(ctx, s.term)
	if err != nil {
		return s.term, nil, err
	}

	return s.term, records, nil
}

// Rank scores the active set with weights.
func (s *Session) Rank(ctx context.Context, weights ranking.Weights, order ranking.Order) (string, []models.RankedRecord, error) {
	if err := weights.Validate(); err != nil {
		return "", nil, err
	}

	term, records, err := s.Records(ctx)
	if err != nil {
		return term, nil, err
	}

	return term, ranking.Score(records, weights, order), nil
}
