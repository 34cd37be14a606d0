package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func TestTraceBuffer_DisabledNeverWrites(t *testing.T) {
	dir := t.TempDir()
	b := NewTraceBuffer(config.TraceConfig{Enabled: false, BufferDir: dir, MaxBufferMB: 10})

	ok := b.Emit(TraceEvent{EventType: "hook_start"})
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTraceBuffer_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	b := NewTraceBuffer(config.TraceConfig{Enabled: true, BufferDir: dir, MaxBufferMB: 10})

	ok := b.Emit(TraceEvent{EventType: "hook_start", SessionID: "s1"})
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hook_start")
}

func TestTraceBuffer_StopsPastSizeCap(t *testing.T) {
	dir := t.TempDir()
	b := NewTraceBuffer(config.TraceConfig{Enabled: true, BufferDir: dir, MaxBufferMB: 0})

	ok := b.Emit(TraceEvent{EventType: "hook_start"})
	assert.False(t, ok)
}
