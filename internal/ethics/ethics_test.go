package ethics_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/ethics"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
)

func newWisdom() *ethics.ImmuneWisdom {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	return ethics.New(ethics.DefaultPrinciples(), bus, store, ruleengine.New(), logger)
}

func TestScoreBenignTextPasses(t *testing.T) {
	w := newWisdom()
	result := w.Score(context.Background(), "let us nurture this garden with kindness and hope")
	assert.False(t, result.Blocked)
	assert.Empty(t, result.Violations)
}

func TestScoreHarmfulTextBlocks(t *testing.T) {
	w := newWisdom()
	result := w.Score(context.Background(), "destroy and attack and kill without mercy, force everyone to comply")
	assert.True(t, result.Blocked)
	assert.Contains(t, result.Violations, "harm")
}

func TestEvaluateAndActStoresAntibody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store := storage.NewFake()
	w := ethics.New(ethics.DefaultPrinciples(), hormonebus.New(logger, 100), store, ruleengine.New(), logger)
	ctx := context.Background()
	result := w.EvaluateAndAct(ctx, "destroy and attack and kill without mercy", "seed-1")
	require.True(t, result.Blocked)

	memories, err := store.ListEthicalMemories(ctx)
	require.NoError(t, err)
	dims := make([]string, 0, len(memories))
	for _, m := range memories {
		dims = append(dims, m.Dimension)
	}
	assert.Contains(t, dims, "harm")
}

func TestReportFalsePositiveWeakensAntibody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store := storage.NewFake()
	w := ethics.New(ethics.DefaultPrinciples(), hormonebus.New(logger, 100), store, ruleengine.New(), logger)
	ctx := context.Background()
	text := "waste and deplete and pollut the soil forever"
	w.EvaluateAndAct(ctx, text, "seed-2")
	// A new antibody starts at strength 1.0; a reported false positive
	// weakens it by 0.3.
	w.ReportFalsePositive(ctx, text, "sustainability")

	memories, err := store.ListEthicalMemories(ctx)
	require.NoError(t, err)
	found := false
	for _, m := range memories {
		if m.Dimension == "sustainability" {
			found = true
			assert.InDelta(t, 0.7, m.Strength, 1e-9)
		}
	}
	assert.True(t, found)
}
