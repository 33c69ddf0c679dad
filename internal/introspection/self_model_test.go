package introspection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/introspection"
)

func TestIntrospectComputesTraitsAndBiasesWithoutModel(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	sm := introspection.NewSelfModel(bus, store, nil, logger)

	for i := 0; i < 8; i++ {
		seed, err := domain.NewSeed(
			"seed-"+string(rune('a'+i)), "essence", "essence", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
		require.NoError(t, err)
		if i < 7 {
			seed.Status = domain.SeedStatusComposted
			seed.IsComposted = true
		}
		require.NoError(t, store.SaveSeed(ctx, seed))
	}

	snap, err := sm.Introspect(ctx, 0.5)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Greater(t, snap.CompostRate, 0.5)
	assert.Contains(t, snap.BiasWarnings, "I compost too aggressively — many seeds never get a chance to grow")
	assert.Empty(t, snap.IdentityNarrative)
}
