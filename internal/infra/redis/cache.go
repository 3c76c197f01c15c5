// Package redis caches the last successfully extracted record so the
// fallback chain can serve it when the upstream is down and the CSV
// history is unavailable or empty.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

const lastRecordKey = "apod:last_record"

// ErrCacheMiss is returned when no record has been cached yet.
var ErrCacheMiss = errors.New("no cached record")

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Cache wraps Redis operations for the pipeline.
type Cache struct {
	rdb *redis.Client
}

// NewCache creates a new Redis cache client.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// SaveLast stores the most recent good record. Only live records are
// cached; degraded records must not overwrite genuine data.
func (c *Cache) SaveLast(ctx context.Context, rec *domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := c.rdb.Set(ctx, lastRecordKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to cache record: %w", err)
	}
	return nil
}

// GetLast retrieves the most recent cached record.
func (c *Cache) GetLast(ctx context.Context) (*domain.Record, error) {
	data, err := c.rdb.Get(ctx, lastRecordKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached record: %w", err)
	}

	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached record: %w", err)
	}
	return &rec, nil
}
