package capabilities_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w0rd-garden/w0rd/internal/capabilities"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

type stubModel struct{ response string }

func (s *stubModel) Complete(ctx context.Context, req textmodel.Request, onToken textmodel.TokenSink) (string, error) {
	return s.response, nil
}

func TestExecuteUnknownCapabilityFails(t *testing.T) {
	r := capabilities.New(&stubModel{response: "ok"}, t.TempDir())
	result := r.Execute(context.Background(), "nonexistent", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown capability")
}

func TestFileWriteThenFileReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	r := capabilities.New(&stubModel{response: "ok"}, dir)
	ctx := context.Background()

	write := r.Execute(ctx, "file_write", map[string]any{"path": "notes/a.txt", "content": "hello garden"})
	require.True(t, write.Success)

	read := r.Execute(ctx, "file_read", map[string]any{"path": "notes/a.txt"})
	require.True(t, read.Success)
	assert.Equal(t, "hello garden", read.Output)
}

func TestFileReadRejectsPathEscapingWorkspace(t *testing.T) {
	dir := t.TempDir()
	r := capabilities.New(&stubModel{response: "ok"}, dir)

	result := r.Execute(context.Background(), "file_read", map[string]any{"path": "../../etc/passwd"})
	assert.False(t, result.Success)
}

func TestAnalyzeUsesTextModel(t *testing.T) {
	dir := t.TempDir()
	r := capabilities.New(&stubModel{response: "structured analysis"}, dir)

	result := r.Execute(context.Background(), "analyze", map[string]any{"task": "look at this"})
	assert.True(t, result.Success)
	assert.Equal(t, "structured analysis", result.Output)
}

func TestFileWriteCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	r := capabilities.New(&stubModel{response: "ok"}, dir)

	result := r.Execute(context.Background(), "file_write", map[string]any{"path": "a/b/c.txt", "content": "x"})
	require.True(t, result.Success)
	_, err := os.Stat(filepath.Join(dir, "a", "b", "c.txt"))
	require.NoError(t, err)
}
