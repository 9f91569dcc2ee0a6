// Package cache keeps a per-owner copy of the product list. Mutations
// invalidate the owner's entry, which is how the list gets refreshed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProductLists caches serialized product lists by owner.
type ProductLists interface {
	Get(ctx context.Context, ownerID string, dest any) (bool, error)
	Set(ctx context.Context, ownerID string, value any) error
	Invalidate(ctx context.Context, ownerID string) error
}

// RedisProductLists stores lists as JSON under "<prefix><ownerID>".
type RedisProductLists struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProductLists(client *redis.Client, prefix string, ttl time.Duration) *RedisProductLists {
	return &RedisProductLists{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisProductLists) key(ownerID string) string {
	return c.prefix + ownerID
}

// Get reports whether a list was cached for the owner and decodes it into dest.
func (c *RedisProductLists) Get(ctx context.Context, ownerID string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

func (c *RedisProductLists) Set(ctx context.Context, ownerID string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.key(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *RedisProductLists) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, c.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Disabled is used when no Redis is configured; every read misses.
type Disabled struct{}

func (Disabled) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Disabled) Set(context.Context, string, any) error         { return nil }
func (Disabled) Invalidate(context.Context, string) error       { return nil }
