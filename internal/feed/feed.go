// Package feed publishes evaluated snapshots to downstream consumers.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/energy"
)

// Publisher receives every snapshot the engine publishes.
type Publisher interface {
	Publish(ctx context.Context, snap energy.Snapshot, fired int) error
	Close() error
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) Publish(context.Context, energy.Snapshot, int) error { return nil }
func (Nop) Close() error                                        { return nil }

// New returns a Redis stream publisher when a URL is configured, Nop otherwise.
func New(cfg config.RedisConfig) (Publisher, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisPublisher(redis.NewClient(opts), cfg.Stream, cfg.MaxLen), nil
}

// RedisPublisher appends one stream entry per snapshot.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: slog.With("component", "feed"),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, snap energy.Snapshot, fired int) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: Fields(snap, fired),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.logger.DebugContext(ctx, "published snapshot", "stream", p.stream, "entry", id, "prime", snap.Prime)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Fields is the stream entry written for a snapshot.
func Fields(snap energy.Snapshot, fired int) map[string]any {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	return map[string]any{
		"taken_at":     snap.Timestamp.UTC().Format(time.RFC3339Nano),
		"mental":       f(snap.Mental),
		"physical":     f(snap.Physical),
		"financial":    f(snap.Financial),
		"emotional":    f(snap.Emotional),
		"prime_score":  f(snap.Prime),
		"events_fired": fired,
	}
}
