// Package artifact locates the exploded web application produced by a build.
package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// MarkerDir identifies an exploded web application root.
const MarkerDir = "WEB-INF"

var ErrNotFound = errors.New("exploded artifact not found")

// TargetDir is the build output directory of the module.
func TargetDir(projectRoot, appContext string) string {
	return filepath.Join(projectRoot, appContext, "target")
}

/**
 * Resolve the exploded artifact directory
 * @param {string} projectRoot - Project root
 * @param {string} appContext - Module name
 * @returns {string} <root>/<ctx>/target/<ctx> when it exists, otherwise the first
 * directory of target/ named <ctx>* containing WEB-INF, in name order
 * @returns {error} ErrNotFound
 */
func Resolve(projectRoot, appContext string) (string, error) {
	target := TargetDir(projectRoot, appContext)
	exact := filepath.Join(target, appContext)
	if isDir(exact) {
		return exact, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return "", ErrNotFound
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), appContext) {
			continue
		}
		candidate := filepath.Join(target, e.Name())
		if isDir(filepath.Join(candidate, MarkerDir)) {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
