package introspection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
	"github.com/w0rd-garden/w0rd/internal/introspection"
)

type stubModel struct {
	response string
}

func (s *stubModel) Complete(ctx context.Context, req textmodel.Request, onToken textmodel.TokenSink) (string, error) {
	return s.response, nil
}

func TestThinkReturnsNilWithoutModel(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	v := introspection.NewInnerVoice(bus, store, nil, logger)

	thought, err := v.Think(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, thought)
}

func TestThinkPersistsAndEmitsInnerThought(t *testing.T) {
	ctx := context.Background()
	bus, store, logger := newTestEnv()
	v := introspection.NewInnerVoice(bus, store, &stubModel{response: "I notice the light shifting through the leaves."}, logger)

	thought, err := v.Think(ctx, &domain.EmotionalState{Wonder: 0.8, Curiosity: 0.2})
	require.NoError(t, err)
	require.NotNil(t, thought)
	assert.NotEmpty(t, thought.Content)

	stream, err := v.RecentStream(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stream, 1)
}
