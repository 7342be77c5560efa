package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bulkops/internal/bulkops/model"

	goredis "github.com/redis/go-redis/v9"
)

// RedisNotifier publishes events as JSON on a Redis pub/sub channel.
type RedisNotifier struct {
	rdb     *goredis.Client
	channel string
}

func NewRedisNotifier(ctx context.Context, addr, channel string) (*RedisNotifier, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel = strings.TrimSpace(channel); channel == "" {
		channel = "bulk_operations"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisNotifier{rdb: rdb, channel: channel}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, event model.NotificationEvent) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("redis notifier not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, raw).Err()
}

func (n *RedisNotifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}
