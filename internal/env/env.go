package env

import (
	"os"
	"path/filepath"
)

var Daemon bool = false
var ListenAddress string = ""

// (default: %USERPROFILE%/.devloop on Windows, $HOME/.devloop on Linux)
var DevloopDir string = GetDevloopDir()

// Directory whose .devloop/ subdirectory holds the workspace settings
var WorkspaceDir string = GetWorkspaceDir()

/**
 * Get devloop directory path
 * @returns {string} Returns devloop directory path
 */
func GetDevloopDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".devloop")
}

/**
 * Get workspace directory path
 * @returns {string} Returns DEVLOOP_WORKSPACE if set, otherwise the current directory
 */
func GetWorkspaceDir() string {
	if dir := os.Getenv("DEVLOOP_WORKSPACE"); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// WorkspaceSettingsDir is where workspace-scoped settings are persisted.
func WorkspaceSettingsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, ".devloop")
}
