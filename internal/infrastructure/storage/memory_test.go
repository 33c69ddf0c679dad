package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func TestFakeGardenStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()

	_, err := store.GetGardenState(ctx)
	assert.Error(t, err)

	g := &domain.GardenState{ID: domain.GardenSingletonID, CurrentSeason: "spring", TotalEnergy: 10}
	require.NoError(t, store.SaveGardenState(ctx, g))

	got, err := store.GetGardenState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "spring", got.CurrentSeason)
	assert.Equal(t, 10.0, got.TotalEnergy)
}

func TestFakeSeedLifecycle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()

	seed, err := domain.NewSeed("seed-1", "a gentle idea", "a gentle idea", []string{"growth"}, 0.5, 0.5, 0.25, 1.0, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeed(ctx, seed))

	planted, err := store.ListSeedsByStatus(ctx, domain.SeedStatusPlanted)
	require.NoError(t, err)
	require.Len(t, planted, 1)

	seed.Compost(time.Now())
	require.NoError(t, store.SaveSeed(ctx, seed))

	composted, err := store.ListSeedsByStatus(ctx, domain.SeedStatusComposted)
	require.NoError(t, err)
	require.Len(t, composted, 1)
	assert.True(t, composted[0].IsComposted)
}

func TestFakeGardenerPheromoneTrails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()

	g, err := store.GetOrCreateGardener(ctx, domain.GardenSingletonID)
	require.NoError(t, err)
	g.PheromoneTrails["growth"] = 3
	require.NoError(t, store.SaveGardener(ctx, g))

	again, err := store.GetOrCreateGardener(ctx, domain.GardenSingletonID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.PheromoneTrails["growth"])
}
