package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles view caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	DashboardCacheTTL = 60 * time.Second // Dashboards tolerate a minute of staleness
	TripAuditCacheTTL = 5 * time.Minute  // Invalidated explicitly on every write
)

// Key prefixes
const (
	dashboardCachePrefix = "cache:dashboard:"
	dashboardKeySet      = "cache:dashboard:keys"
	tripAuditCachePrefix = "cache:trip_audit:"
)

// GetDashboard loads a cached dashboard view into dst. It reports false on a cache miss.
func (s *CacheStore) GetDashboard(ctx context.Context, key string, dst any) (bool, error) {
	return s.getJSON(ctx, dashboardCachePrefix+key, dst)
}

// SetDashboard caches a dashboard view. A ttl <= 0 uses DashboardCacheTTL.
func (s *CacheStore) SetDashboard(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DashboardCacheTTL
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dashboardCachePrefix+key, data, ttl)
	pipe.SAdd(ctx, dashboardKeySet, key)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateDashboards removes every cached dashboard view.
func (s *CacheStore) InvalidateDashboards(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, dashboardKeySet).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, dashboardCachePrefix+k)
	}
	pipe.Del(ctx, dashboardKeySet)
	_, err = pipe.Exec(ctx)
	return err
}

// GetTripAudit loads a cached single-trip audit result into dst.
func (s *CacheStore) GetTripAudit(ctx context.Context, tripID string, dst any) (bool, error) {
	return s.getJSON(ctx, tripAuditCachePrefix+tripID, dst)
}

// SetTripAudit caches a single-trip audit result.
func (s *CacheStore) SetTripAudit(ctx context.Context, tripID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tripAuditCachePrefix+tripID, data, TripAuditCacheTTL).Err()
}

// InvalidateTripAudit removes cached audit results for tripIDs.
func (s *CacheStore) InvalidateTripAudit(ctx context.Context, tripIDs ...string) error {
	if len(tripIDs) == 0 {
		return nil
	}
	keys := make([]string, len(tripIDs))
	for i, id := range tripIDs {
		keys[i] = tripAuditCachePrefix + id
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}
