package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ranker:results:"

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type entry struct {
	Term    string                `json:"term"`
	SavedAt time.Time             `json:"saved_at"`
	Records []models.ScoredRecord `json:"records"`
}

// RedisStore keeps the active result set as a JSON blob. A pointer key names
// the current blob so a new save can drop the previous one.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a store. ttl 0 keeps entries until replaced.
func NewRedisStore(client RedisClient, prefix string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "redis_store"),
	}
}

func (s *RedisStore) Key(term string) string {
	return s.prefix + storage.ArtifactName(term)
}

func (s *RedisStore) activeKey() string {
	return s.prefix + "active"
}

func (s *RedisStore) Save(ctx context.Context, term string, records []models.ScoredRecord) error {
	if storage.ArtifactName(term) == "" {
		return fmt.Errorf("search term is required")
	}

	data, err := json.Marshal(entry{Term: term, SavedAt: time.Now(), Records: records})
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	key := s.Key(term)

	previous, err := s.client.Get(ctx, s.activeKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read active key: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}

	if err := s.client.Set(ctx, s.activeKey(), key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to update active key: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.client.Del(ctx, previous).Err(); err != nil {
			s.logger.Warn("failed to delete previous results", "key", previous, "error", err)
		}
	}

	return nil
}

func (s *RedisStore) Load(ctx context.Context, term string) ([]models.ScoredRecord, error) {
	data, err := s.client.Get(ctx, s.Key(term)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, term)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return e.Records, nil
}
