package cooling_test

import (
	"context"
	"testing"
	"time"

	"github.com/guardianlink/guardianlink360/internal/cooling"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/stretchr/testify/require"
)

func testConfig() config.CoolingConfig {
	return config.CoolingConfig{
		FreezeThreshold: 10000,
		Window:          30 * time.Minute,
		ExpiryPolicy:    config.ExpiryEscalate,
		SweepInterval:   10 * time.Millisecond,
	}
}

func TestRegistry_ShouldFreeze_ThresholdBoundary(t *testing.T) {
	r := cooling.NewRegistry(cooling.NewMemoryStore(), testConfig(), nil)

	require.False(t, r.ShouldFreeze(9999))
	require.True(t, r.ShouldFreeze(10000))
	require.True(t, r.ShouldFreeze(250000))
}

func TestRegistry_FlagThenActive(t *testing.T) {
	ctx := context.Background()
	r := cooling.NewRegistry(cooling.NewMemoryStore(), testConfig(), nil)

	e, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
	require.NoError(t, err)
	require.Equal(t, int64(50000), e.Amount)
	require.True(t, e.CoolingUntil.After(time.Now()))

	active, err := r.Active(ctx, "+911111111111")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, int64(7), active.IncidentID)

	other, err := r.Active(ctx, "+933333333333")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestRegistry_ReflagOverwrites(t *testing.T) {
	ctx := context.Background()
	r := cooling.NewRegistry(cooling.NewMemoryStore(), testConfig(), nil)

	_, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
	require.NoError(t, err)
	_, err = r.Flag(ctx, "+911111111111", "+922222222222", "HDFC", 80000, 8)
	require.NoError(t, err)

	active, err := r.Active(ctx, "+911111111111")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, int64(80000), active.Amount)
	require.Equal(t, "HDFC", active.BankName)
	require.Equal(t, int64(8), active.IncidentID)
}

func TestRegistry_ReleaseClearsFreeze(t *testing.T) {
	ctx := context.Background()
	r := cooling.NewRegistry(cooling.NewMemoryStore(), testConfig(), nil)

	_, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
	require.NoError(t, err)

	released, err := r.Release(ctx, "+911111111111")
	require.NoError(t, err)
	require.NotNil(t, released)
	require.Equal(t, int64(50000), released.Amount)

	active, err := r.Active(ctx, "+911111111111")
	require.NoError(t, err)
	require.Nil(t, active)

	// A second release is a no-op, not an error.
	again, err := r.Release(ctx, "+911111111111")
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestRegistry_SweepExpiresWithPolicy(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []config.ExpiryPolicy{config.ExpiryRelease, config.ExpiryEscalate} {
		t.Run(string(policy), func(t *testing.T) {
			cfg := testConfig()
			cfg.Window = -time.Second // every flag is born expired
			cfg.ExpiryPolicy = policy

			expired := make(chan cooling.Entry, 1)
			var got config.ExpiryPolicy
			r := cooling.NewRegistry(cooling.NewMemoryStore(), cfg, func(_ context.Context, e cooling.Entry, p config.ExpiryPolicy) {
				got = p
				expired <- e
			})

			_, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
			require.NoError(t, err)

			r.Start(ctx)
			defer r.Stop()

			select {
			case e := <-expired:
				require.Equal(t, "+911111111111", e.SeniorPhone)
				require.Equal(t, policy, got)
			case <-time.After(2 * time.Second):
				t.Fatal("sweeper never expired the entry")
			}

			active, err := r.Active(ctx, "+911111111111")
			require.NoError(t, err)
			require.Nil(t, active)
		})
	}
}

func TestRegistry_HoldPolicyKeepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Window = -time.Second
	cfg.ExpiryPolicy = config.ExpiryHold

	expired := make(chan cooling.Entry, 1)
	r := cooling.NewRegistry(cooling.NewMemoryStore(), cfg, func(_ context.Context, e cooling.Entry, _ config.ExpiryPolicy) {
		expired <- e
	})

	_, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
	require.NoError(t, err)

	r.Start(ctx)
	defer r.Stop()

	select {
	case <-expired:
		t.Fatal("hold policy must not expire entries")
	case <-time.After(100 * time.Millisecond):
	}

	active, err := r.Active(ctx, "+911111111111")
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestRegistry_UnexpiredEntrySurvivesSweep(t *testing.T) {
	ctx := context.Background()
	expired := make(chan cooling.Entry, 1)
	r := cooling.NewRegistry(cooling.NewMemoryStore(), testConfig(), func(_ context.Context, e cooling.Entry, _ config.ExpiryPolicy) {
		expired <- e
	})

	_, err := r.Flag(ctx, "+911111111111", "+922222222222", "SBI", 50000, 7)
	require.NoError(t, err)

	r.Start(ctx)
	defer r.Stop()

	select {
	case <-expired:
		t.Fatal("entry inside its cooling window must not expire")
	case <-time.After(100 * time.Millisecond):
	}
}
