package introspection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/introspection"
)

func TestMakePredictionsCoversGrowingSeedsAndEnergyTrend(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	engine := introspection.NewPredictionEngine(bus, store, logger)

	seed, err := domain.NewSeed("seed-1", "grow", "grow", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	seed.Status = domain.SeedStatusGrowing
	seed.Energy = 20.0
	seed.CreatedAt = time.Now().Add(-3 * time.Minute)
	require.NoError(t, store.SaveSeed(ctx, seed))
	require.NoError(t, store.SaveGardenState(ctx, &domain.GardenState{ID: domain.GardenSingletonID, CurrentSeason: "summer", TotalEnergy: 120}))

	predictions, err := engine.MakePredictions(ctx)
	require.NoError(t, err)
	require.Len(t, predictions, 2)
}

func TestResolvePredictionsScoresSurpriseOnMismatch(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	engine := introspection.NewPredictionEngine(bus, store, logger)

	require.NoError(t, store.SaveGardenState(ctx, &domain.GardenState{ID: domain.GardenSingletonID, CurrentSeason: "winter", TotalEnergy: 50}))
	require.NoError(t, store.SavePrediction(ctx, &domain.Prediction{
		ID: "pred-1", PredictionType: "energy_trend", SubjectID: domain.GardenSingletonID,
		PredictedOutcome: "increase|100.0", Confidence: 0.6,
		CreatedAt: time.Now().Add(-2 * time.Minute),
	}))

	resolved, err := engine.ResolvePredictions(ctx)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.False(t, resolved[0].Correct)
	assert.Greater(t, resolved[0].Surprise, 0.0)
}
