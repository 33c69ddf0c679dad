package energy_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/energy"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func newOrgan() (*energy.Organ, storage.Store) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	return energy.New(bus, store, logger), store
}

func TestPhotosynthesizeCapsAt50(t *testing.T) {
	o, store := newOrgan()
	ctx := context.Background()
	seed, err := domain.NewSeed("s1", "a bright idea", "a bright idea", nil, 0, 0, 10, 1, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeed(ctx, seed))

	gained, err := o.Photosynthesize(ctx, seed, 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, gained, 50.0)
	assert.Greater(t, gained, 0.0)
}

func TestPhloemDistributeProportionalToPressure(t *testing.T) {
	o, store := newOrgan()
	ctx := context.Background()
	seed, err := domain.NewSeed("s2", "content", "essence", nil, 0, 0, 0, 1, nil)
	require.NoError(t, err)
	seed.Energy = 100
	require.NoError(t, store.SaveSeed(ctx, seed))

	high := &domain.Sprout{ID: "sp1", SeedID: seed.ID, Pressure: 0.8, EthicalScore: 1.0, Energy: 0}
	low := &domain.Sprout{ID: "sp2", SeedID: seed.ID, Pressure: 0.2, EthicalScore: 1.0, Energy: 0}

	require.NoError(t, o.PhloemDistribute(ctx, seed, []*domain.Sprout{high, low}))
	assert.Greater(t, high.Energy, low.Energy)
}

func TestApplyEntropyMarksDepletion(t *testing.T) {
	o, store := newOrgan()
	ctx := context.Background()
	sp := &domain.Sprout{ID: "sp3", Energy: 0.001}
	require.NoError(t, o.ApplyEntropy(ctx, []*domain.Sprout{sp}, "winter"))
	assert.Equal(t, 0.0, sp.Energy)
}
