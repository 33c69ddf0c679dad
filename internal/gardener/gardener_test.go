package gardener_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/gardener"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func TestRecordInteractionAccumulatesTrails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()
	o := gardener.New(store)

	require.NoError(t, o.RecordInteraction(ctx, []string{"growth", "growth", "connection"}))
	g, err := o.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, g.InteractionCount)
	assert.Equal(t, 2, g.PheromoneTrails["growth"])
	assert.Equal(t, 1, g.PheromoneTrails["connection"])
}

func TestUpdatePreferenceVectorEMA(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()
	o := gardener.New(store)

	require.NoError(t, o.UpdatePreferenceVector(ctx, map[string]float64{"novelty": 1.0}))
	require.NoError(t, o.UpdatePreferenceVector(ctx, map[string]float64{"novelty": 0.0}))

	g, err := o.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, g.PreferenceVector["novelty"], 1e-9)
}
