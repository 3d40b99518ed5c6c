package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
)

const processedEventKeyPrefix = "paywall:webhook:event:"

var _ contracts.ProcessedEventLog = (*RedisEventLog)(nil)

// RedisEventLog stores processed event ids as expiring keys
type RedisEventLog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventLog creates an event log whose entries expire after ttl
func NewRedisEventLog(client *redis.Client, ttl time.Duration) *RedisEventLog {
	return &RedisEventLog{client: client, ttl: ttl}
}

// ConnectRedis initializes a Redis client from URL or host:port input
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, processedEventKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisEventLog) Record(ctx context.Context, eventID string) error {
	return l.client.Set(ctx, processedEventKeyPrefix+eventID, time.Now().UTC().Unix(), l.ttl).Err()
}
