// Package notify publishes run lifecycle events over Redis pub/sub so
// downstream consumers can react to finished ingestion runs.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/gigfeed/internal/ingest"
)

// RunsChannel is the pub/sub channel run summaries are published to.
const RunsChannel = "gigfeed:runs"

// Publisher publishes run summaries to Redis.
type Publisher struct {
	client *redis.Client
}

// NewPublisher connects to Redis and verifies the connection.
func NewPublisher(ctx context.Context, redisURL string) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Publisher{client: client}, nil
}

// PublishRunCompleted publishes a run summary to the runs channel.
func (p *Publisher) PublishRunCompleted(ctx context.Context, summary ingest.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := p.client.Publish(ctx, RunsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish run summary: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
