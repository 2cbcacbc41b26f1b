package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/database/testutil"
)

func newDatabaseStore(t *testing.T) (*DatabaseStore, *time.Time) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewDatabaseStore(db)
	store.now = func() time.Time { return current }
	return store, &current
}

func TestKey(t *testing.T) {
	require.Equal(t, "ratelimit:login:10.0.0.1", Key("ratelimit", ":login:", "", "10.0.0.1"))
	require.Equal(t, "campusfix:session:abc", prefixed("session:abc"))
	require.Equal(t, "campusfix:session:abc", prefixed("campusfix:session:abc"))
}

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session:abc", []byte("payload"), time.Minute))
	require.NoError(t, store.Set(ctx, "session:abc", []byte("updated"), time.Minute))

	value, ok, err := store.Get(ctx, "session:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "updated", string(value))

	*clock = clock.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "session:abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "forever", []byte("x"), 0))
	require.NoError(t, store.Delete(ctx, "forever", "missing"))
	_, ok, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreIncrementWindow(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := store.IncrementWithTTL(ctx, "ratelimit:login:1.2.3.4", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
		require.Equal(t, time.Minute, ttl)
	}

	*clock = clock.Add(30 * time.Second)
	count, ttl, err := store.IncrementWithTTL(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(4), count)
	require.Equal(t, 30*time.Second, ttl)

	*clock = clock.Add(time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("1"), 0))

	*clock = clock.Add(time.Minute)
	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	_, ok, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNilStoresReportErrors(t *testing.T) {
	var store *DatabaseStore
	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	require.Nil(t, NewDatabaseStore(nil))
	require.Nil(t, NewRedisStoreFromClient(nil))
}
