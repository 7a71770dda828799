package debugattach

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tomcat-devloop/internal/config"
)

const AttachTimeout = 10000

type LaunchConfiguration struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Request  string `json:"request"`
	HostName string `json:"hostName"`
	Port     int    `json:"port"`
	Timeout  int    `json:"timeout"`
}

type LaunchFile struct {
	Version        string                `json:"version"`
	Configurations []LaunchConfiguration `json:"configurations"`
}

// LaunchPath is where the editor looks for debug configurations.
func LaunchPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, ".vscode", "launch.json")
}

/**
 * Write a Java attach configuration for the debug port
 * @param {string} workspaceDir - Workspace root
 * @param {*config.Workspace} ws - Supplies the context name and debug port
 * @returns {bool} Whether the file was written; an existing file is never touched
 * @returns {error} Invalid port or write error
 */
func WriteLaunchConfig(workspaceDir string, ws *config.Workspace) (bool, error) {
	path := LaunchPath(workspaceDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	port, err := strconv.Atoi(ws.DebugPort())
	if err != nil {
		return false, fmt.Errorf("invalid debug port '%s'", ws.DebugPort())
	}
	name := ws.AppContext
	if name == "" {
		name = "Spring Application"
	}
	doc := LaunchFile{
		Version: "0.2.0",
		Configurations: []LaunchConfiguration{{
			Name:     "Debug " + name,
			Type:     "java",
			Request:  "attach",
			HostName: "localhost",
			Port:     port,
			Timeout:  AttachTimeout,
		}},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return false, err
	}
	return true, nil
}
