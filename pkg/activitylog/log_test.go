package activitylog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

func TestAppend_WritesAndTrims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.log")
	l := New(config.ActivityLogConfig{Path: path, MaxEntries: 3, FullContentTag: "FULL_CONTENT:"})

	for i := 0; i < 5; i++ {
		l.Append(fmt.Sprintf("entry %d", i), "")
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[2], "entry 4")
}

func TestAppend_IncludesFullContentTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.log")
	l := New(config.ActivityLogConfig{Path: path, MaxEntries: 10, FullContentTag: "FULL_CONTENT:"})

	l.Append("summary line", "the full body")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FULL_CONTENT:the full body")
}
