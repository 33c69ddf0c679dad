package introspection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/introspection"
)

func TestProcessTickAppliesEventDeltaThenDecays(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	core := introspection.NewEmotionalCore(bus, store, logger)

	bus.Emit(ctx, domain.NewHormone("h1", "ethical_violation", nil, "ethics", domain.HormoneInstant))

	state, err := core.ProcessTick(ctx)
	require.NoError(t, err)
	assert.Greater(t, state.Anxiety, introspection.EmotionBaselines["anxiety"])
}

func TestDecisionBiasClampsToOne(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	core := introspection.NewEmotionalCore(bus, store, logger)

	for i := 0; i < 10; i++ {
		bus.Emit(ctx, domain.NewHormone("h", "emergency_winter", nil, "network", domain.HormoneInstant))
		_, err := core.ProcessTick(ctx)
		require.NoError(t, err)
	}

	bias := core.DecisionBias()
	assert.LessOrEqual(t, bias.Conservatism, 1.0)
	assert.LessOrEqual(t, bias.Introspection, 1.0)
}
