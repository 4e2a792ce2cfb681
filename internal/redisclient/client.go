package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps redis for the resolve-payload cache. The public landing
// path is read-heavy and the payload changes rarely; Postgres stays the
// source of truth and every cache error falls back to it.
type Client struct {
	rdb        *redis.Client
	resolveTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db, resolveTTLSeconds int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:        rdb,
		resolveTTL: time.Duration(resolveTTLSeconds) * time.Second,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func resolveKey(shortCode string) string {
	return fmt.Sprintf("resolve:%s", shortCode)
}

// GetResolvedPayload returns the cached resolve payload for a short
// code, or ("", false) on a miss.
func (c *Client) GetResolvedPayload(ctx context.Context, shortCode string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, resolveKey(shortCode)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetResolvedPayload caches a successful resolve payload with the
// configured TTL.
func (c *Client) SetResolvedPayload(ctx context.Context, shortCode, payload string) error {
	return c.rdb.Set(ctx, resolveKey(shortCode), payload, c.resolveTTL).Err()
}

// InvalidateResolvedPayload drops the cached payload for a short code.
// Called on status changes and deletes so gating takes effect
// immediately instead of after TTL expiry.
func (c *Client) InvalidateResolvedPayload(ctx context.Context, shortCode string) error {
	return c.rdb.Del(ctx, resolveKey(shortCode)).Err()
}
