// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the narrow key-value facade the record engine consumes.

It wraps the Redis client behind the three operations the engine actually
needs (get, set-with-TTL, delete) so that sessions and change-flags never
touch driver types directly. Expiry is handled exclusively by the TTLs set
here — there is no active eviction sweep anywhere in the engine.
*/
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/noriva/internal/platform/apperr"
)

// Cache is the engine-facing key-value client.
type Cache struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

/*
Get reads a key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: The stored value, empty on a miss
  - bool: Whether the key was present
  - error: apperr.CouldNotConnect on connectivity failure
*/
func (cache *Cache) Get(context context.Context, key string) (string, bool, error) {

	// Read the key from Redis
	value, err := cache.client.Get(context, key).Result()

	// A miss is not an error for callers
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.CouldNotConnect(err)
	}

	return value, true, nil
}

/*
Set writes a key with an explicit TTL.

Parameters:
  - context: context.Context
  - key: string
  - value: string
  - ttl: time.Duration (must be positive; the TTL is the only expiry mechanism)

Returns:
  - error: apperr.CouldNotConnect on connectivity failure
*/
func (cache *Cache) Set(context context.Context, key string, value string, ttl time.Duration) error {
	if err := cache.client.Set(context, key, value, ttl).Err(); err != nil {
		return apperr.CouldNotConnect(err)
	}
	return nil
}

/*
Delete removes a key. Deleting an absent key is not an error.

Returns:
  - error: apperr.CouldNotConnect on connectivity failure
*/
func (cache *Cache) Delete(context context.Context, key string) error {
	if err := cache.client.Del(context, key).Err(); err != nil {
		return apperr.CouldNotConnect(err)
	}
	return nil
}
