package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0755))
	}
}

/**
 * Test the exact directory is preferred
 * @param {*testing.T} t - Testing framework instance
 */
func TestResolveExact(t *testing.T) {
	root := t.TempDir()
	target := TargetDir(root, "web")
	mkdirs(t, filepath.Join(target, "web"), filepath.Join(target, "web-1.0", MarkerDir))

	dir, err := Resolve(root, "web")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "web"), dir)
}

/**
 * Test fallback to a versioned directory containing WEB-INF
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Directories without WEB-INF are skipped
 * - Files with the prefix are skipped
 */
func TestResolvePrefix(t *testing.T) {
	root := t.TempDir()
	target := TargetDir(root, "web")
	mkdirs(t, filepath.Join(target, "web-0.9"), filepath.Join(target, "web-1.0-SNAPSHOT", MarkerDir))
	require.NoError(t, os.WriteFile(filepath.Join(target, "web-1.0.war"), []byte("war"), 0644))

	dir, err := Resolve(root, "web")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "web-1.0-SNAPSHOT"), dir)
}

func TestResolveNotFound(t *testing.T) {
	root := t.TempDir()

	_, err := Resolve(root, "web")
	assert.ErrorIs(t, err, ErrNotFound)

	mkdirs(t, filepath.Join(TargetDir(root, "web"), "classes"), filepath.Join(TargetDir(root, "web"), "web-1.0"))
	_, err = Resolve(root, "web")
	assert.ErrorIs(t, err, ErrNotFound)
}

/**
 * Property: resolving twice without filesystem changes gives the same answer
 * @param {*testing.T} t - Testing framework instance
 */
func TestResolveIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp("", "devloop-artifact")
		if err != nil {
			rt.Fatalf("temp dir: %v", err)
		}
		defer os.RemoveAll(root)

		target := TargetDir(root, "app")
		suffixes := rapid.SliceOfDistinct(rapid.StringMatching(`-[a-z0-9]{1,6}`), rapid.ID[string]).Draw(rt, "suffixes")
		for _, s := range suffixes {
			dir := filepath.Join(target, "app"+s)
			if rapid.Bool().Draw(rt, "marker"+s) {
				dir = filepath.Join(dir, MarkerDir)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				rt.Fatalf("mkdir: %v", err)
			}
		}

		first, err1 := Resolve(root, "app")
		second, err2 := Resolve(root, "app")
		if first != second || (err1 == nil) != (err2 == nil) {
			rt.Fatalf("not idempotent: %q/%v vs %q/%v", first, err1, second, err2)
		}
		if err1 == nil {
			if _, err := os.Stat(filepath.Join(first, MarkerDir)); err != nil {
				rt.Fatalf("resolved %s has no %s", first, MarkerDir)
			}
		}
	})
}
