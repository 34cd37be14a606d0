// Package project resolves a filesystem working directory to a stable
// group_id by walking up to the nearest project-root marker.
package project

import (
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// DetectGroupID walks up from cwd looking for any of cfg.RootMarkers. The
// group_id is the basename of the directory containing the first marker
// found. If no marker is found before reaching the filesystem root,
// cfg.Fallback ("unknown") is returned — this function never errors.
func DetectGroupID(cfg config.ProjectIDConfig, cwd string) string {
	dir := cwd
	for {
		for _, marker := range cfg.RootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return filepath.Base(dir)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cfg.Fallback
}
