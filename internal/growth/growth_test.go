package growth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/growth"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func TestGrowProducesSprouts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	g := growth.New(bus, store, nil, logger)

	seed, err := domain.NewSeed("seed-x", "grow and learn", "grow and learn", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	seed.Energy = 20

	sprouts, err := g.Grow(context.Background(), seed)
	require.NoError(t, err)
	assert.NotEmpty(t, sprouts)
	assert.Equal(t, domain.SeedStatusGrowing, seed.Status)
}

func TestTriggerApoptosisComposts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	g := growth.New(bus, store, nil, logger)

	sprout := &domain.Sprout{ID: "sp-1", Status: domain.SproutStatusBudding}
	require.NoError(t, g.TriggerApoptosis(context.Background(), sprout))
	assert.Equal(t, domain.SproutStatusComposted, sprout.Status)
	assert.NotNil(t, sprout.ApoptosisAt)
}
