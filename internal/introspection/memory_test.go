package introspection_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/introspection"
)

func newTestEnv() (*hormonebus.Bus, storage.Store, *slog.Logger) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	return bus, store, logger
}

func TestProcessTickFormsMemoryFromSeedPlanted(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	mem := introspection.New(bus, store, logger)

	bus.Emit(ctx, domain.NewHormone("h1", "seed_planted", map[string]any{
		"essence": "grow a community garden", "seed_id": "seed-1",
	}, "growth", domain.HormoneInstant))

	formed, err := mem.ProcessTick(ctx, nil)
	require.NoError(t, err)
	require.Len(t, formed, 1)
	assert.Contains(t, formed[0].Narrative, "grow a community garden")
	assert.Equal(t, []string{"seed-1"}, formed[0].RelatedSeedIDs)
}

func TestRecallPromotesToCoreMemoryAfterThreshold(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	mem := introspection.New(bus, store, logger)

	require.NoError(t, store.SaveEpisodicMemory(ctx, &domain.EpisodicMemory{
		ID: "mem-1", Narrative: "a quiet morning", EventType: "season_change", EmotionalIntensity: 0.5,
	}))

	for i := 0; i < introspection.CoreMemoryThreshold; i++ {
		_, err := mem.Recall(ctx, "season_change", "", 10, -1, 1)
		require.NoError(t, err)
	}

	core, err := mem.GetCoreMemories(ctx)
	require.NoError(t, err)
	require.Len(t, core, 1)
	assert.Equal(t, "mem-1", core[0].ID)
}

func TestConsolidatePrunesWeakMemoriesOverCap(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	mem := introspection.New(bus, store, logger)

	for i := 0; i < introspection.MaxMemories+5; i++ {
		require.NoError(t, store.SaveEpisodicMemory(ctx, &domain.EpisodicMemory{
			ID: fmt.Sprintf("mem-filler-%03d", i), Narrative: "filler", EmotionalIntensity: 0.1, RecallCount: 0,
		}))
	}

	pruned, err := mem.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, introspection.ConsolidationBatch, pruned)
}
