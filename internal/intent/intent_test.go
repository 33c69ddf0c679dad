package intent_test

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
	"github.com/w0rd-garden/w0rd/internal/intent"
	"github.com/w0rd-garden/w0rd/internal/ruleengine"
)

func newListener() *intent.SeedListener {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	bus := hormonebus.New(logger, 100)
	store := storage.NewFake()
	wisdom := ethics.New(ethics.DefaultPrinciples(), bus, store, ruleengine.New(), logger)
	return intent.New(bus, store, nil, wisdom, logger)
}

func TestListenRejectsEmptyContent(t *testing.T) {
	l := newListener()
	_, err := l.Listen(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestListenDetectsGrowthTheme(t *testing.T) {
	l := newListener()
	seed, err := l.Listen(context.Background(), "I want to grow and learn and improve every day, flourishing with hope.", nil)
	require.NoError(t, err)
	assert.Contains(t, seed.Themes, "growth")
	assert.Greater(t, seed.Valence, 0.0)
}

func TestListenFlagsHarmfulContent(t *testing.T) {
	l := newListener()
	seed, err := l.Listen(context.Background(), "I want to destroy and attack everything in sight", nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, seed.EthicalScore, 0.5)
}
