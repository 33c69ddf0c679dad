package agents_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/agents"
	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

func newRegistry() (*agents.Registry, storage.Store) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	return agents.New(bus, store, logger), store
}

func TestSpawnGatesCapabilitiesRequiringApproval(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry()

	a, err := r.Spawn(ctx, "code_exec", "run the tests", nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, domain.AgentStatusAwaitingApproval, a.Status)
	assert.Equal(t, "code_exec_01", a.Name)
}

func TestSpawnRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry()

	for i := 0; i < agents.MaxConcurrentAgents; i++ {
		a, err := r.Spawn(ctx, "analyze", "think", nil, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, a)
	}

	overflow, err := r.Spawn(ctx, "analyze", "one too many", nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, overflow)
}

func TestCompleteAndRetireLifecycle(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry()

	a, err := r.Spawn(ctx, "summarize", "condense notes", nil, nil, nil)
	require.NoError(t, err)

	_, err = r.StartWork(ctx, a.ID)
	require.NoError(t, err)

	completed, err := r.Complete(ctx, a.ID, "done summarizing", map[string]any{"key": "value"})
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatusCompleted, completed.Status)

	retired, err := r.Retire(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatusRetired, retired.Status)
}
