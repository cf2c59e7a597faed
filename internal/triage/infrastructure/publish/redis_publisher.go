package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/eduardojeem/benchline/internal/triage/application/services"
)

const (
	// SnapshotKey holds the latest published ordering for query-style
	// consumers (dashboards poll or fetch on connect).
	SnapshotKey = "benchline:triage:queue"

	// SnapshotChannel announces new orderings to pub/sub subscribers.
	SnapshotChannel = "benchline:triage:queue:updates"
)

// RedisSnapshotPublisher stores the latest queue snapshot under a key and
// announces it on a pub/sub channel, giving UI consumers both a query
// surface and a subscription surface.
type RedisSnapshotPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisSnapshotPublisher creates a publisher from a Redis URL.
func NewRedisSnapshotPublisher(ctx context.Context, url string, logger *slog.Logger) (*RedisSnapshotPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis snapshot publisher connected")

	return &RedisSnapshotPublisher{
		client: client,
		logger: logger,
	}, nil
}

// PublishSnapshot stores and announces the ordering. The SET and PUBLISH
// are best-effort as a pair: the key is written first so late
// subscribers reading on notification always find at least as fresh a
// snapshot.
func (p *RedisSnapshotPublisher) PublishSnapshot(ctx context.Context, snap services.QueueSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal queue snapshot: %w", err)
	}

	if err := p.client.Set(ctx, SnapshotKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store queue snapshot: %w", err)
	}

	if err := p.client.Publish(ctx, SnapshotChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to announce queue snapshot: %w", err)
	}

	p.logger.Debug("queue snapshot published",
		"items", len(snap.Items),
		"config_version", snap.ConfigVersion,
	)

	return nil
}

// Close closes the Redis connection.
func (p *RedisSnapshotPublisher) Close() error {
	return p.client.Close()
}
