// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for byte-oriented key-value caching. It fronts
// the store for hot organization reads; a miss is never an error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// OrganizationKey returns the cache key for an organization record.
func OrganizationKey(id string) string {
	return "org:" + id
}
