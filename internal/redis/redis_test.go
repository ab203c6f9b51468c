package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type view struct {
	Trips int    `json:"trips"`
	Label string `json:"label"`
}

func TestCacheStore_Dashboard(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	var got view
	hit, err := store.GetDashboard(ctx, "30:5", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.SetDashboard(ctx, "30:5", view{Trips: 12, Label: "month"}, 0))
	require.NoError(t, store.SetDashboard(ctx, "7:5", view{Trips: 3}, time.Minute))

	hit, err = store.GetDashboard(ctx, "30:5", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, view{Trips: 12, Label: "month"}, got)
	assert.Equal(t, DashboardCacheTTL, mr.TTL("cache:dashboard:30:5"))

	mr.FastForward(DashboardCacheTTL + time.Second)
	hit, err = store.GetDashboard(ctx, "30:5", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.InvalidateDashboards(ctx))
	assert.False(t, mr.Exists("cache:dashboard:7:5"))
	assert.False(t, mr.Exists(dashboardKeySet))
}

func TestCacheStore_TripAudit(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	require.NoError(t, store.SetTripAudit(ctx, "trip-1", view{Label: "verified"}))
	require.NoError(t, store.SetTripAudit(ctx, "trip-2", view{Label: "needs_review"}))

	var got view
	hit, err := store.GetTripAudit(ctx, "trip-2", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "needs_review", got.Label)

	require.NoError(t, store.InvalidateTripAudit(ctx, "trip-1", "trip-2"))
	assert.False(t, mr.Exists("cache:trip_audit:trip-1"))
	assert.False(t, mr.Exists("cache:trip_audit:trip-2"))
	require.NoError(t, store.InvalidateTripAudit(ctx))
}

func TestCacheStore_CorruptEntry(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := NewCacheStore(client)

	require.NoError(t, mr.Set("cache:trip_audit:bad", "{not json"))

	var got view
	hit, err := store.GetTripAudit(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestLockStore_TripLock(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	ok, err := store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second reviewer must not get the lock")

	ok, err = store.AcquireTripLock(ctx, "trip-2", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ReleaseTripLock(ctx, "trip-1"))
	ok, err = store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(11 * time.Second)
	assert.False(t, mr.Exists("lock:trip:trip-2"))
}
