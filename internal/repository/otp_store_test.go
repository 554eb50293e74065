package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newOTPStore(t *testing.T) (repository.OTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return repository.NewRedisOTPStore(client), mr
}

func TestOTPStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newOTPStore(t)

	require.NoError(t, store.Save(ctx, "+911111111111", "hashed-code", 10*time.Minute))

	hash, err := store.Get(ctx, "+911111111111")
	require.NoError(t, err)
	require.Equal(t, "hashed-code", hash)

	require.NoError(t, store.Delete(ctx, "+911111111111"))
	hash, err = store.Get(ctx, "+911111111111")
	require.NoError(t, err)
	require.Empty(t, hash)
}

func TestOTPStore_MissingKeyIsEmptyNotError(t *testing.T) {
	store, _ := newOTPStore(t)

	hash, err := store.Get(context.Background(), "+900000000000")
	require.NoError(t, err)
	require.Empty(t, hash)
}

func TestOTPStore_ExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newOTPStore(t)

	require.NoError(t, store.Save(ctx, "+911111111111", "hashed-code", 10*time.Minute))
	mr.FastForward(11 * time.Minute)

	hash, err := store.Get(ctx, "+911111111111")
	require.NoError(t, err)
	require.Empty(t, hash)
}
