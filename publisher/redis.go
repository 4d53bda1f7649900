package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/mcxwatch/models"
)

// RedisPublisher appends each snapshot to a Redis stream, trimmed to an
// approximate maximum length on every add.
type RedisPublisher struct {
	client    redis.Cmdable
	closer    func() error
	stream    string
	maxLength int64
}

// NewRedisPublisher connects to addr/db. The connection is lazy; the first
// Publish surfaces connection errors.
func NewRedisPublisher(addr string, db int, stream string, maxLength int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisPublisher{
		client:    client,
		closer:    client.Close,
		stream:    stream,
		maxLength: maxLength,
	}
}

func (p *RedisPublisher) Name() string { return "redis" }

// Publish adds one entry with the snapshot's seq and its JSON view.
func (p *RedisPublisher) Publish(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap.View())
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"seq":      strconv.FormatUint(snap.Seq, 10),
			"snapshot": string(data),
		},
	}
	if p.maxLength > 0 {
		args.MaxLen = p.maxLength
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: xadd %s: %w", p.stream, err)
	}
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
