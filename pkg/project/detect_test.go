package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func testConfig() config.ProjectIDConfig {
	return config.ProjectIDConfig{RootMarkers: []string{".git", "go.mod"}, Fallback: "unknown"}
}

func TestDetectGroupID_FindsMarkerInCurrentDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x"), 0o644))

	got := DetectGroupID(testConfig(), dir)
	assert.Equal(t, filepath.Base(dir), got)
}

func TestDetectGroupID_WalksUpToParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got := DetectGroupID(testConfig(), nested)
	assert.Equal(t, filepath.Base(root), got)
}

func TestDetectGroupID_FallsBackWhenNoMarker(t *testing.T) {
	dir := t.TempDir()
	got := DetectGroupID(testConfig(), dir)
	assert.Equal(t, "unknown", got)
}
