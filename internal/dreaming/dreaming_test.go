package dreaming_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/dreaming"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func TestDreamReturnsNilWithoutCompletedSeeds(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	e := dreaming.New(bus, store, nil, logger)

	dream, err := e.Dream(context.Background(), 0.7)
	require.NoError(t, err)
	assert.Nil(t, dream)
}

func TestDreamConsolidatesCompletedThemes(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	e := dreaming.New(bus, store, nil, logger)

	seed, err := domain.NewSeed("seed-1", "grow and connect", "grow and connect", []string{"growth", "connection"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	seed.Status = domain.SeedStatusHarvested
	require.NoError(t, store.SaveSeed(ctx, seed))

	dream, err := e.Dream(ctx, 0.7)
	require.NoError(t, err)
	require.NotNil(t, dream)
	assert.NotEmpty(t, dream.Content)
	assert.ElementsMatch(t, []string{"growth", "connection"}, dream.Themes)
}

func TestPlantDreamCreatesSeed(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	e := dreaming.New(bus, store, nil, logger)

	dream := &domain.Dream{ID: "dream-1", Content: "growth meets connection.", Themes: []string{"growth"}}
	require.NoError(t, store.SaveDream(ctx, dream))

	seed, err := e.PlantDream(ctx, "dream-1")
	require.NoError(t, err)
	require.NotNil(t, seed)
	assert.Equal(t, domain.SeedStatusPlanted, seed.Status)
	assert.Contains(t, seed.Themes, "dream")
}
