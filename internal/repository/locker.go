package repository

import (
	"context"
	"time"

	domrepo "AlphaCast/internal/domain/repository"
	"AlphaCast/pkg/cache"
)

// CacheLocker implements the run lock on top of the cache service, which is
// Redis SETNX in production and plain memory in tests.
type CacheLocker struct {
	c cache.Service
}

func NewCacheLocker(c cache.Service) domrepo.Locker {
	return &CacheLocker{c: c}
}

func (l *CacheLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.c.TryLock(ctx, "lock:"+key, ttl)
}

func (l *CacheLocker) Release(ctx context.Context, key string) error {
	return l.c.Unlock(ctx, "lock:"+key)
}
