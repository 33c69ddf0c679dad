package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/agents"
	"github.com/w0rd-garden/w0rd/internal/autonomy"
	"github.com/w0rd-garden/w0rd/internal/capabilities"
	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/dreaming"
	"github.com/w0rd-garden/w0rd/internal/energy"
	"github.com/w0rd-garden/w0rd/internal/growth"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/introspection"
	"github.com/w0rd-garden/w0rd/internal/network"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
	"github.com/w0rd-garden/w0rd/internal/scheduler"
)

func buildOrgans(t *testing.T, store storage.Store, bus *hormonebus.Bus) scheduler.Organs {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := ruleengine.New()
	budget := autonomy.NewTickBudget(4)

	return scheduler.Organs{
		Energy:        energy.New(bus, store, logger),
		Growth:        growth.New(bus, store, nil, logger),
		Network:       network.New(bus, store, rules, logger),
		Agents:        agents.New(bus, store, logger),
		Capabilities:  capabilities.New(nil, t.TempDir()),
		Autonomy:      autonomy.New(nil, budget, logger),
		Dreaming:      dreaming.New(bus, store, nil, logger),
		Consciousness: dreaming.NewConsciousness(bus, store, nil, logger),
		Emotion:       introspection.NewEmotionalCore(bus, store, logger),
		Memory:        introspection.New(bus, store, logger),
		InnerVoice:    introspection.NewInnerVoice(bus, store, nil, logger),
		Prediction:    introspection.NewPredictionEngine(bus, store, logger),
		SelfModel:     introspection.NewSelfModel(bus, store, nil, logger),
	}
}

func TestRunTickCompletesOneCycleWithoutError(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFake()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := hormonebus.New(logger, 100)

	require.NoError(t, store.SaveGardenState(ctx, &domain.GardenState{
		ID: domain.GardenSingletonID, CurrentSeason: "summer", TotalEnergy: 100,
	}))
	seed, err := domain.NewSeed("seed-1", "a quiet wish to grow", "growth", []string{"growth"}, 0.5, 0.5, 0.5, 1.0, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeed(ctx, seed))

	organs := buildOrgans(t, store, bus)
	budget := autonomy.NewTickBudget(4)
	sched := scheduler.New(store, bus, budget, organs, time.Second, 5, 3, nil, logger)

	require.NotPanics(t, func() {
		sched.Tick(ctx)
	})
}
