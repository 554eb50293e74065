package cooling_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/guardianlink/guardianlink360/internal/cooling"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *cooling.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cooling.NewRedisStore(client)
}

func sampleEntry() cooling.Entry {
	return cooling.Entry{
		SeniorPhone:   "+911111111111",
		GuardianPhone: "+922222222222",
		Amount:        50000,
		BankName:      "SBI",
		CoolingUntil:  time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second),
		IncidentID:    7,
		FlaggedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestRedisStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)
	e := sampleEntry()

	require.NoError(t, store.Put(ctx, e))

	got, err := store.Get(ctx, e.SeniorPhone)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, e.Amount, got.Amount)
	require.Equal(t, e.BankName, got.BankName)
	require.True(t, e.CoolingUntil.Equal(got.CoolingUntil))
}

func TestRedisStore_GetMissingReturnsNil(t *testing.T) {
	store := newTestRedisStore(t)

	got, err := store.Get(context.Background(), "+900000000000")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisStore_DeleteRemovesEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)
	e := sampleEntry()

	require.NoError(t, store.Put(ctx, e))
	require.NoError(t, store.Delete(ctx, e.SeniorPhone))

	got, err := store.Get(ctx, e.SeniorPhone)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisStore_ListReturnsAllEntries(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	first := sampleEntry()
	second := sampleEntry()
	second.SeniorPhone = "+933333333333"
	second.Amount = 99999

	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byPhone := map[string]int64{}
	for _, e := range entries {
		byPhone[e.SeniorPhone] = e.Amount
	}
	require.Equal(t, int64(50000), byPhone["+911111111111"])
	require.Equal(t, int64(99999), byPhone["+933333333333"])
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := cooling.NewMemoryStore()
	e := sampleEntry()

	require.NoError(t, store.Put(ctx, e))

	got, err := store.Get(ctx, e.SeniorPhone)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, e.IncidentID, got.IncidentID)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, e.SeniorPhone))
	got, err = store.Get(ctx, e.SeniorPhone)
	require.NoError(t, err)
	require.Nil(t, got)
}
