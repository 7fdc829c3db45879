package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the transcript cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Config holds Redis connection configuration. An empty URL disables caching.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// NewClient creates a new Redis client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func transcriptKey(videoID, language string) string {
	return fmt.Sprintf("transcript:%s:%s", videoID, language)
}

// GetTranscript loads a cached transcript into out. found is false on a cache miss.
func (c *Client) GetTranscript(ctx context.Context, videoID, language string, out any) (bool, error) {
	val, err := c.rdb.Get(ctx, transcriptKey(videoID, language)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get failed: %w", err)
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, fmt.Errorf("decode cached transcript: %w", err)
	}
	return true, nil
}

// SetTranscript stores a transcript with the configured TTL.
func (c *Client) SetTranscript(ctx context.Context, videoID, language string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := c.rdb.Set(ctx, transcriptKey(videoID, language), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
