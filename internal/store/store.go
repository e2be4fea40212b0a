// Package store persists predictor state in redis: per-adversary history
// snapshots, tick records and strategy weight documents. Everything is
// stored as JSON under combat:* keys so state survives restarts and can
// be inspected with redis-cli.
package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient defines the redis commands the stores use. *redis.Client
// satisfies it; tests substitute canned command results.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}
