package autonomy_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/autonomy"
	"github.com/w0rd-garden/w0rd/internal/domain"
)

func newEngine() *autonomy.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return autonomy.New(nil, autonomy.NewTickBudget(4), logger)
}

func TestShouldHarvestHeuristicPath(t *testing.T) {
	e := newEngine()
	seed := &domain.Seed{
		Status:    domain.SeedStatusGrowing,
		Energy:    20.0,
		CreatedAt: time.Now().Add(-5 * time.Minute),
	}
	sprouts := []*domain.Sprout{{Energy: 1}, {Energy: 1}, {Energy: 1}}
	assert.True(t, e.ShouldHarvest(context.Background(), seed, sprouts))
}

func TestShouldHarvestRejectsImmatureSeed(t *testing.T) {
	e := newEngine()
	seed := &domain.Seed{Status: domain.SeedStatusGrowing, Energy: 20.0, CreatedAt: time.Now()}
	sprouts := []*domain.Sprout{{Energy: 1}, {Energy: 1}}
	assert.False(t, e.ShouldHarvest(context.Background(), seed, sprouts))
}

func TestShouldCompostHeuristicPath(t *testing.T) {
	e := newEngine()
	seed := &domain.Seed{
		Status:    domain.SeedStatusGrowing,
		Energy:    0.1,
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}
	assert.True(t, e.ShouldCompost(context.Background(), seed, nil))
}

func TestShouldPromoteRequiresAgeAndEnergy(t *testing.T) {
	fresh := &domain.Seed{Status: domain.SeedStatusPlanted, Energy: 5.0, CreatedAt: time.Now()}
	assert.False(t, autonomy.ShouldPromote(fresh))

	mature := &domain.Seed{Status: domain.SeedStatusPlanted, Energy: 5.0, CreatedAt: time.Now().Add(-time.Minute)}
	assert.True(t, autonomy.ShouldPromote(mature))
}

func TestPlanMissionSkipsWhenAgentsActive(t *testing.T) {
	e := newEngine()
	seed := &domain.Seed{ID: "seed-1", Status: domain.SeedStatusGrowing, Essence: "grow the garden"}
	existing := make([]*domain.AgentNode, 4)
	for i := range existing {
		existing[i] = &domain.AgentNode{Status: domain.AgentStatusWorking}
	}
	tasks := e.PlanMission(context.Background(), seed, existing)
	assert.Empty(t, tasks)
}

func TestPlanMissionInitialPlanFallsBackToHeuristic(t *testing.T) {
	e := newEngine()
	seed := &domain.Seed{ID: "seed-1", Status: domain.SeedStatusGrowing, Essence: "grow the garden"}
	tasks := e.PlanMission(context.Background(), seed, nil)
	require.Len(t, tasks, 2)
	assert.Equal(t, "decompose", tasks[0].AgentType)
}

func TestEvaluateMissionHarvestsOnTwoSuccesses(t *testing.T) {
	agentNodes := []*domain.AgentNode{
		{Status: domain.AgentStatusCompleted, Result: "done one"},
		{Status: domain.AgentStatusCompleted, Result: "done two"},
	}
	assert.Equal(t, "harvest", autonomy.EvaluateMission(agentNodes))
}

func TestEvaluateMissionCompostsWhenAllFail(t *testing.T) {
	agentNodes := []*domain.AgentNode{
		{Status: domain.AgentStatusCompleted, Error: "boom"},
	}
	assert.Equal(t, "compost", autonomy.EvaluateMission(agentNodes))
}
