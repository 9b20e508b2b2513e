package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/attorneymap/attorneymap/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

var (
	client    *redis.Client
	reachable bool
	ctx       = context.Background()
)

// SetupCache initializes the connection to the Redis server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		reachable = false
		log.Printf("Warning: Could not connect to Redis cache: %v", err)
	} else {
		reachable = true
		log.Printf("Successfully connected to Redis cache: %s", pong)
	}
}

// SetClient replaces the client, e.g. with one pointing at miniredis in tests.
func SetClient(c *redis.Client) {
	client = c
	reachable = c != nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// ReachableClient returns the client only when the last ping succeeded, so
// callers can fall back to database-backed locking.
func ReachableClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	if !reachable {
		return nil
	}
	return client
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes a value from the cache by key
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
