package network_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/network"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
)

func newTestOrgan(t *testing.T) (*network.Organ, storage.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	rules := ruleengine.New()
	return network.New(bus, store, rules, logger), store
}

func TestTurnSeasonAdvancesInOrder(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrgan(t)

	garden := &domain.GardenState{ID: domain.GardenSingletonID, CurrentSeason: "spring"}
	require.NoError(t, store.SaveGardenState(ctx, garden))

	require.NoError(t, o.TurnSeason(ctx, ""))

	garden, err := store.GetGardenState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "summer", garden.CurrentSeason)
}

func TestScanForSymbiosisLinksSharedThemes(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrgan(t)

	a, err := domain.NewSeed("seed-a", "grow and connect", "grow and connect", []string{"growth", "connection"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	b, err := domain.NewSeed("seed-b", "grow and connect more", "grow and connect more", []string{"growth", "connection"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeed(ctx, a))
	require.NoError(t, store.SaveSeed(ctx, b))

	links, err := o.ScanForSymbiosis(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.ElementsMatch(t, []string{"growth", "connection"}, links[0].RelatedTags)
}

func TestQuorumReachedRequiresCount(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrgan(t)

	for i := 0; i < 3; i++ {
		s, err := domain.NewSeed("seed-"+string(rune('a'+i)), "growth text", "growth text", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
		require.NoError(t, err)
		require.NoError(t, store.SaveSeed(ctx, s))
	}

	reached, err := o.QuorumReached(ctx, "growth", 10)
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = o.QuorumReached(ctx, "connection", 10)
	require.NoError(t, err)
	assert.False(t, reached)
}
