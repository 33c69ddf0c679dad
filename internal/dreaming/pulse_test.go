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

func TestPulseSummarizesGardenState(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	c := dreaming.NewConsciousness(bus, store, nil, logger)

	require.NoError(t, store.SaveGardenState(ctx, &domain.GardenState{ID: domain.GardenSingletonID, CurrentSeason: "summer"}))

	thriving, err := domain.NewSeed("seed-thriving", "thriving seed", "thriving seed", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	thriving.Status = domain.SeedStatusGrowing
	thriving.Energy = 15.0
	require.NoError(t, store.SaveSeed(ctx, thriving))

	for i := 0; i < 2; i++ {
		h, err := domain.NewSeed("harvested-"+string(rune('a'+i)), "done", "done", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
		require.NoError(t, err)
		h.Status = domain.SeedStatusHarvested
		require.NoError(t, store.SaveSeed(ctx, h))
	}

	report, err := c.Pulse(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Summary)
	assert.Contains(t, report.ThrivingSeedIDs, "seed-thriving")
	assert.Equal(t, 2.0, report.WisdomScore)
}
