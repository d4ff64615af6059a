package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeSearchCompleted EventType = "SEARCH_COMPLETED"
	EventTypeSearchFailed    EventType = "SEARCH_FAILED"
)

// StreamClient is the subset of *redis.Client used for publishing.
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// SearchPayload describes the outcome of a search run.
type SearchPayload struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	JobID      string    `json:"job_id,omitempty"`
	Term       string    `json:"term"`
	Region     string    `json:"region"`
	Pages      int       `json:"pages"`
	Scraped    int       `json:"scraped"`
	Skipped    int       `json:"skipped"`
	Unnamed    int       `json:"unnamed"`
	Duplicates int       `json:"duplicates"`
	OutOfRange int       `json:"out_of_range"`
	Final      int       `json:"final"`
	Truncated  bool      `json:"truncated"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Currency   string    `json:"currency,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Publisher writes search events to a Redis stream.
type Publisher struct {
	client StreamClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client StreamClient, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType EventType, payload *SearchPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	payload.EventType = string(eventType)
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"type":      payload.EventType,
			"event_id":  payload.EventID,
			"term":      payload.Term,
			"timestamp": fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"stream", p.stream,
		"stream_id", id,
		"type", payload.EventType,
		"term", payload.Term)

	return nil
}
