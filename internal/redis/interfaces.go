package redis

import (
	"context"
	"time"
)

// CacheStoreInterface defines the interface for view caching.
type CacheStoreInterface interface {
	GetDashboard(ctx context.Context, key string, dst any) (bool, error)
	SetDashboard(ctx context.Context, key string, v any, ttl time.Duration) error
	InvalidateDashboards(ctx context.Context) error
	GetTripAudit(ctx context.Context, tripID string, dst any) (bool, error)
	SetTripAudit(ctx context.Context, tripID string, v any) error
	InvalidateTripAudit(ctx context.Context, tripIDs ...string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ CacheStoreInterface = (*CacheStore)(nil)
	_ LockStoreInterface  = (*LockStore)(nil)
)
